package constants

// File upload constants
const (
	// MaxUploadSize is the maximum image upload size in bytes (20MB)
	MaxUploadSize = 20 << 20

	// MaxJSONBodySize is the maximum JSON body size, base64 inflates images by a third
	MaxJSONBodySize = MaxUploadSize*4/3 + 1024
)
