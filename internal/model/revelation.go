package model

import "time"

// Revelation is the single secret record holding the mission call.  At most
// one row exists in the `revelations` table; the repository always reads
// the first row and upserts into it.  All sensitive columns hold
// fieldcrypt blobs ("ivBase64:ciphertextBase64"), never plaintext.
//
// Fields:
//
//	ID                – opaque identifier (UUID).
//	MissionaryName    – encrypted name of the missionary.
//	MissionaryAddress – encrypted postal address.
//	MissionName       – encrypted mission assignment.
//	Language          – encrypted assigned language.
//	TrainingCenter    – encrypted training center.
//	EntryDate         – encrypted entry date string.
//	RawText           – encrypted text extracted from the call letter.
//	NormalizedText    – encrypted cleaned-up version of RawText.
//	IsRevealed        – whether the admin switched the reveal on.
//	OpeningDate       – zone-less local date string, interpreted at UTC-6.
//	LocationAddress   – event venue address (plaintext).
//	LocationURL       – event venue map link (plaintext).
//	CreatedAt         – timestamp of creation.
//	UpdatedAt         – timestamp of last update.
type Revelation struct {
	ID                string    // revelations.id
	MissionaryName    string    // revelations.missionary_name
	MissionaryAddress string    // revelations.missionary_address
	MissionName       string    // revelations.mission_name
	Language          string    // revelations.language
	TrainingCenter    string    // revelations.training_center
	EntryDate         string    // revelations.entry_date
	RawText           string    // revelations.raw_text
	NormalizedText    string    // revelations.normalized_text
	IsRevealed        bool      // revelations.is_revealed
	OpeningDate       string    // revelations.opening_date
	LocationAddress   string    // revelations.location_address
	LocationURL       string    // revelations.location_url
	CreatedAt         time.Time // revelations.created_at
	UpdatedAt         time.Time // revelations.updated_at
}

// RevelationPatch lists the columns an upsert should write.  Nil pointers
// leave the stored value untouched on update and default to "" on insert.
type RevelationPatch struct {
	MissionaryName    *string
	MissionaryAddress *string
	MissionName       *string
	Language          *string
	TrainingCenter    *string
	EntryDate         *string
	RawText           *string
	NormalizedText    *string
	OpeningDate       *string
	LocationAddress   *string
	LocationURL       *string
}
