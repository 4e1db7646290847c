package entities

// MediaPayload is an inbound media upload before it is staged.
type MediaPayload struct {
	PreferredName string
	MimeType      string
	Bytes         []byte
}

// MediaToken is a single-use capability handle for a staged media file.
// The host engine dereferences URI through the file provider, which only
// honours it for the package named in Grantee.
type MediaToken struct {
	URI     string `json:"uri"`
	Grantee string `json:"grantee"`
}

// StagedMedia is a payload written to private storage and exposed as a token.
type StagedMedia struct {
	Token MediaToken
	Name  string
	Path  string
}
