package ports

import "io"

// FileProvider turns private files into URI handles other processes can open
// once they are explicitly granted read access.
type FileProvider interface {
	// URIForFile returns the content URI for a file under the provider root.
	URIForFile(path string) (string, error)

	// GrantURIPermission lets pkg read uri.
	GrantURIPermission(pkg, uri string) error

	// RevokeURIPermission withdraws every grant on uri.
	RevokeURIPermission(uri string)

	// Open opens uri on behalf of pkg. It fails unless pkg holds a grant.
	Open(pkg, uri string) (io.ReadCloser, error)
}
