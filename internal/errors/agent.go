package errors

// Duplicate reports a uniqueness violation on field.
func Duplicate(field string) *DomainError {
	switch field {
	case "phone_number":
		return &DomainError{Kind: KindDuplicate, Code: "PHONE_TAKEN", Field: field, Message: "phone number already registered"}
	case "email":
		return &DomainError{Kind: KindDuplicate, Code: "EMAIL_TAKEN", Field: field, Message: "email already registered"}
	case "license_number":
		return &DomainError{Kind: KindDuplicate, Code: "LICENSE_EXHAUSTED", Field: field, Message: "could not allocate a unique license number"}
	default:
		return &DomainError{Kind: KindDuplicate, Code: "DUPLICATE", Field: field, Message: field + " already exists"}
	}
}

var ErrAgentNotFound = &DomainError{
	Kind:    KindNotFound,
	Code:    "AGENT_NOT_FOUND",
	Message: "agent not found",
}

var ErrAgentNotRegistered = &DomainError{
	Kind:    KindNotFound,
	Code:    "AGENT_NOT_REGISTERED",
	Message: "phone number not registered",
}
