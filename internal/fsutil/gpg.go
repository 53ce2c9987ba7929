package fsutil

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// EncryptToRecipient GPG-encrypts the file at srcPath for the public key(s)
// found in armored keyPath, writing ciphertext to dstPath, entirely
// in-process rather than shelling out to a `gpg` binary.
func EncryptToRecipient(srcPath, dstPath, keyPath string) (err error) {
	keyFile, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("fsutil: opening encryption key %s: %w", keyPath, err)
	}
	defer keyFile.Close()

	entities, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		return fmt.Errorf("fsutil: reading encryption key %s: %w", keyPath, err)
	}
	if len(entities) == 0 {
		return fmt.Errorf("fsutil: encryption key %s contains no entities", keyPath)
	}
	// Only the first key in the file is the recipient; a multi-key file
	// is not a multi-recipient request.
	entities = entities[:1]

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("fsutil: opening %s for encryption: %w", srcPath, err)
	}
	defer src.Close()

	// O_EXCL: two suspect files archived within the same second would
	// otherwise collide on dstPath and silently overwrite one another.
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("fsutil: creating %s: %w", dstPath, err)
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	armorWriter, err := armor.Encode(dst, "PGP MESSAGE", nil)
	if err != nil {
		return fmt.Errorf("fsutil: opening armor writer for %s: %w", dstPath, err)
	}

	plaintext, err := openpgp.Encrypt(armorWriter, entities, nil, nil, nil)
	if err != nil {
		armorWriter.Close()
		return fmt.Errorf("fsutil: starting encryption stream for %s: %w", dstPath, err)
	}

	if _, err = io.Copy(plaintext, src); err != nil {
		return fmt.Errorf("fsutil: encrypting %s: %w", srcPath, err)
	}
	if err = plaintext.Close(); err != nil {
		return fmt.Errorf("fsutil: finalizing encryption of %s: %w", srcPath, err)
	}
	if err = armorWriter.Close(); err != nil {
		return fmt.Errorf("fsutil: finalizing armor for %s: %w", dstPath, err)
	}
	return nil
}
