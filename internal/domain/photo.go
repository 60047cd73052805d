package domain

import "time"

// PhotoURLLifetime bounds how long a presigned photo URL stays usable.
const PhotoURLLifetime = 15 * time.Minute

// PhotoUpload is a presigned direct-to-storage upload slot.
type PhotoUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int    `json:"expires_in"`
}
