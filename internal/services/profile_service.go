package services

import (
	"log"
	"time"

	"quizflow/internal/models"
	"quizflow/internal/utils"
)

type ProfileStore interface {
	GetUserByChatID(chatID int64) (*models.User, error)
	UpsertProfile(p *models.Profile) error
	GetProfile(userID int64) (*models.Profile, error)
	DeleteUserData(chatID int64, hard bool) (bool, error)
}

// ProfileService validates and stores respondent contact details. Name,
// email and phone are encrypted before they reach the store.
type ProfileService struct {
	store  ProfileStore
	cipher *FieldCipher
	now    func() time.Time
}

type ProfileInput struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	City            string `json:"city"`
	ResidenceStatus string `json:"residence_status"`
	Consent         bool   `json:"consent"`
}

type ProfileView struct {
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phone_number"`
	City            string     `json:"city"`
	ResidenceStatus string    `json:"residence_status"`
	ConsentAt       time.Time `json:"consent_at"`
}

func NewProfileService(st ProfileStore, cipher *FieldCipher) *ProfileService {
	return &ProfileService{
		store:  st,
		cipher: cipher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save validates in, encrypts the personal fields and upserts the profile.
func (s *ProfileService) Save(chatID int64, in ProfileInput) error {
	if !in.Consent {
		return NewForbiddenError("personal data consent required")
	}
	if !utils.ValidFullName(in.FullName) {
		return NewInvalidError("full name must be at least two words")
	}
	if !utils.ValidEmail(in.Email) {
		return NewInvalidError("invalid email")
	}
	phone, ok := utils.NormalizePhone(in.PhoneNumber)
	if !ok {
		return NewInvalidError("invalid phone number")
	}
	if !utils.ValidCity(in.City) {
		return NewInvalidError("invalid city")
	}
	u, err := s.store.GetUserByChatID(chatID)
	if err != nil {
		return err
	}
	if u == nil {
		return NewNotFoundError("survey not started")
	}
	encName, err := s.cipher.Encrypt(in.FullName)
	if err != nil {
		return err
	}
	encEmail, err := s.cipher.Encrypt(in.Email)
	if err != nil {
		return err
	}
	encPhone, err := s.cipher.Encrypt(phone)
	if err != nil {
		return err
	}
	now := s.now()
	return s.store.UpsertProfile(&models.Profile{
		UserID:          u.ID,
		FullName:        encName,
		Email:           encEmail,
		PhoneNumber:     encPhone,
		City:            in.City,
		ResidenceStatus: in.ResidenceStatus,
		ConsentAt:       now,
		UpdatedAt:       now,
	})
}

// Get returns the decrypted profile for a respondent.
func (s *ProfileService) Get(chatID int64) (*ProfileView, error) {
	u, err := s.store.GetUserByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("unknown respondent")
	}
	p, err := s.store.GetProfile(u.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("profile not filled")
	}
	name, err := s.cipher.Decrypt(p.FullName)
	if err != nil {
		return nil, err
	}
	email, err := s.cipher.Decrypt(p.Email)
	if err != nil {
		return nil, err
	}
	phone, err := s.cipher.Decrypt(p.PhoneNumber)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		FullName:        name,
		Email:           email,
		PhoneNumber:     phone,
		City:            p.City,
		ResidenceStatus: p.ResidenceStatus,
		ConsentAt:       p.ConsentAt,
	}, nil
}

// Erase removes a respondent's answers, profile and score. With hard set the
// user row itself goes too.
func (s *ProfileService) Erase(chatID int64, hard bool) error {
	ok, err := s.store.DeleteUserData(chatID, hard)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("unknown respondent")
	}
	log.Printf("erased data for chat %d (hard=%v)", chatID, hard)
	return nil
}
