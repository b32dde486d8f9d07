package services

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// audioIV is the fixed counter block the catalog encrypts audio files with.
var audioIV = [aes.BlockSize]byte{
	0x72, 0xe0, 0x67, 0xfb, 0xdd, 0xcb, 0xcf, 0x77,
	0xeb, 0xe8, 0xbc, 0x64, 0x3f, 0x63, 0x0d, 0x93,
}

// DecryptAudio applies AES-128-CTR with key to encrypted. The result has the same length.
//
// CTR is symmetric, so the same call encrypts.
func DecryptAudio(key models.AudioKey, encrypted []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecryptFailed, err)
	}

	out := make([]byte, len(encrypted))
	cipher.NewCTR(block, audioIV[:]).XORKeyStream(out, encrypted)
	return out, nil
}
