package fieldcrypt

import "fmt"

// Field names the sensitive columns of the reveal record.
type Field string

const (
	MissionaryName    Field = "missionaryName"
	MissionaryAddress Field = "missionaryAddress"
	MissionName       Field = "missionName"
	Language          Field = "language"
	TrainingCenter    Field = "trainingCenter"
	EntryDate         Field = "entryDate"
	RawText           Field = "rawText"
	NormalizedText    Field = "normalizedText"
)

// RecordFields is the fixed set handled by EncryptRecord and DecryptRecord.
var RecordFields = []Field{
	MissionaryName,
	MissionaryAddress,
	MissionName,
	Language,
	TrainingCenter,
	EntryDate,
	RawText,
	NormalizedText,
}

// Fields maps field names to either plaintext or encrypted blobs.
type Fields map[Field]string

// EncryptRecord encrypts every field of RecordFields. Missing entries are
// encrypted as the empty string and names outside the set are dropped.
func (c *Codec) EncryptRecord(in Fields) (Fields, error) {
	return c.apply(in, c.Encrypt, "encrypt")
}

// DecryptRecord is the inverse of EncryptRecord.
func (c *Codec) DecryptRecord(in Fields) (Fields, error) {
	return c.apply(in, c.Decrypt, "decrypt")
}

func (c *Codec) apply(in Fields, fn func(string) (string, error), op string) (Fields, error) {
	out := make(Fields, len(RecordFields))
	for _, f := range RecordFields {
		v, err := fn(in[f])
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, f, err)
		}
		out[f] = v
	}
	return out, nil
}
