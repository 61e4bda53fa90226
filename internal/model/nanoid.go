package model

import "crypto/rand"

// nanoidAlphabet drops easily confused characters (l, I, O) to match the
// identifiers already present in the MDB.
const nanoidAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ0123456789"

const nanoidSize = 6

// MakeNanoid generates a 6-character identifier used to distinguish
// duplicated entities within one metamodel database.
func MakeNanoid() string {
	buf := make([]byte, nanoidSize)
	if _, err := rand.Read(buf); err != nil {
		panic("nanoid: " + err.Error())
	}
	out := make([]byte, nanoidSize)
	for i, b := range buf {
		out[i] = nanoidAlphabet[int(b)%len(nanoidAlphabet)]
	}
	return string(out)
}
