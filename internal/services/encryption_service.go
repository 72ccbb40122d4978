package services

import (
	"strings"

	"judolog/internal/crypto"
	"judolog/internal/models"
)

// EncryptionService applies the field cipher to the columns that hold private text.
type EncryptionService struct {
	crypto *crypto.Cipher
}

func NewEncryptionService(encryptionKey, blindIndexKey []byte) (*EncryptionService, error) {
	c, err := crypto.NewCipher(encryptionKey, blindIndexKey)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{crypto: c}, nil
}

// NormalizeEmail is applied before both encryption and lookup.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// EncryptUser encrypts the email and fills its blind index.
func (s *EncryptionService) EncryptUser(user *models.User) error {
	email := NormalizeEmail(user.Email)
	enc, err := s.crypto.Encrypt(email)
	if err != nil {
		return err
	}
	user.Email = enc
	user.EmailBlindIndex = s.crypto.BlindIndex(email)
	return nil
}

func (s *EncryptionService) DecryptUser(user *models.User) error {
	email, err := s.crypto.Decrypt(user.Email)
	if err != nil {
		return err
	}
	user.Email = email
	return nil
}

func (s *EncryptionService) EmailBlindIndex(email string) string {
	return s.crypto.BlindIndex(NormalizeEmail(email))
}

func (s *EncryptionService) EncryptSession(sess *models.TrainingSession) error {
	return s.seal(&sess.Notes)
}

func (s *EncryptionService) DecryptSession(sess *models.TrainingSession) error {
	return s.open(&sess.Notes)
}

func (s *EncryptionService) EncryptNote(n *models.TacticalNote) error {
	return s.seal(&n.Content)
}

func (s *EncryptionService) DecryptNote(n *models.TacticalNote) error {
	return s.open(&n.Content)
}

func (s *EncryptionService) seal(field *string) error {
	v, err := s.crypto.Encrypt(*field)
	if err != nil {
		return err
	}
	*field = v
	return nil
}

func (s *EncryptionService) open(field *string) error {
	v, err := s.crypto.Decrypt(*field)
	if err != nil {
		return err
	}
	*field = v
	return nil
}
