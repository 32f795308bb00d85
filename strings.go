package tinyhttp

var (
	strCRLF       = []byte("\r\n")
	strColonSpace = []byte(": ")
	strHTTPSlash  = []byte("HTTP/")
)

const (
	defaultServerName  = "tinyhttp server"
	defaultContentType = "text/plain; charset=UTF-8"
)

const (
	strAcceptRanges     = "Accept-Ranges"
	strConnection       = "Connection"
	strContentEncoding  = "Content-Encoding"
	strContentLength    = "Content-Length"
	strContentRange     = "Content-Range"
	strContentType      = "Content-Type"
	strDate             = "Date"
	strServer           = "Server"
	strTE               = "TE"
	strTrailer          = "Trailer"
	strTransferEncoding = "Transfer-Encoding"
	strUpgrade          = "Upgrade"

	strChunked  = "chunked"
	strIdentity = "identity"
	strHead     = "HEAD"
)
