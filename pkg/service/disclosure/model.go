package disclosure

type DiscloseCredentialRequest struct {
	// CredentialID names the stored credential whose subject is disclosed
	CredentialID string

	// Level is a preset level, or custom, or empty to imply custom
	Level Level

	// Fields is the explicit selection for a custom disclosure; ignored for presets
	Fields []string
}

type DiscloseCredentialResponse struct {
	CredentialID string `json:"credentialId"`
	Disclosure   Result `json:"disclosure"`
}

type GetLevelFieldsRequest struct {
	Level Level
}

type GetLevelFieldsResponse struct {
	Level  Level    `json:"level"`
	Fields []string `json:"fields"`
}
