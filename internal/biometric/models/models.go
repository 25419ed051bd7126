package models

import "time"

// EnrollmentRecord is the persisted enrollment for one person. Two alternate
// unique keys identify it: UserID and Email. The descriptor itself is only
// held as AES-GCM ciphertext; ciphertext and nonce are base64 text so any
// backing store can carry them.
type EnrollmentRecord struct {
	ID                  int64
	UserID              string
	Name                string
	Email               string
	EmbeddingCiphertext string
	NonceB64            string
	SnapshotPath        string
	UpdatedAt           time.Time
}

// UpsertOutcome reports what an enrollment write did. Migrated is set when
// the matched record's userID or email changed, meaning the write re-bound
// an existing enrollment to a partially new identity.
type UpsertOutcome struct {
	Updated  bool
	Migrated bool
}

// UpsertParams carries one enrollment write. An empty SnapshotPath preserves
// the previously stored value.
type UpsertParams struct {
	UserID              string
	Name                string
	Email               string
	EmbeddingCiphertext string
	NonceB64            string
	SnapshotPath        string
}

// EnrollRequest is the service-level input for an enrollment.
type EnrollRequest struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email"`
	Descriptor []float32 `json:"descriptor"`
	Snapshot   *Snapshot `json:"snapshot,omitempty"`
}

// Snapshot is the optional capture context sent alongside an enrollment.
// Only ImageDataURL is persisted; the rest is accepted for forward
// compatibility with capture clients.
type Snapshot struct {
	ImageDataURL   string         `json:"imageDataUrl,omitempty"`
	Features       map[string]any `json:"features,omitempty"`
	DeviceInfo     map[string]any `json:"deviceInfo,omitempty"`
	ConsentVersion string         `json:"consentVersion,omitempty"`
	CapturedAt     int64          `json:"capturedAt,omitempty"`
}

// EnrollResult summarizes a completed enrollment.
type EnrollResult struct {
	OK      bool   `json:"ok"`
	Updated bool   `json:"updated"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

// VerifyRequest identifies an enrollment by either alternate key and carries
// the probe descriptor.
type VerifyRequest struct {
	UserID     string    `json:"userId,omitempty"`
	Email      string    `json:"email,omitempty"`
	Descriptor []float32 `json:"descriptor"`
}
