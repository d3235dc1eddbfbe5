package service

import (
	"notepad/internal/domain/entity"
	"notepad/internal/utils"

	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindByID(id int64) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
	FindBySubject(sub string) (*entity.User, error)
	Save(user *entity.User) error
}

// DefaultUserService maps verified identities onto local user rows.
type DefaultUserService struct {
	UserRepo UserRepository
}

func NewUserService(userRepo UserRepository) *DefaultUserService {
	return &DefaultUserService{UserRepo: userRepo}
}

// ResolveOrCreate returns the local user for a verified identity, creating
// one on first sight.
//
// The subject id is the durable key: when a row already carries it, the
// row is returned untouched, so a stale token cannot overwrite email or
// name. A row matched by email only (provisioned before federated identity
// was attached) gets the subject id written onto it.
func (s *DefaultUserService) ResolveOrCreate(sub, email, name string) (*entity.User, error) {
	user, err := s.UserRepo.FindBySubject(sub)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = s.UserRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		log.Infof("attaching subject %s to existing user %d", sub, user.ID)
		user.SubjectID = &sub
		if name != "" {
			user.Name = name
		}
		user.UpdatedAt = utils.NowUTC()
		if err = s.UserRepo.Save(user); err != nil {
			return s.recoverExisting(sub, email, err)
		}
		return user, nil
	}

	if name == "" {
		name = utils.EmailLocalPart(email)
	}

	now := utils.NowUTC()
	user = &entity.User{
		SubjectID: &sub,
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	log.Infof("creating user for subject %s", sub)
	if err = s.UserRepo.Save(user); err != nil {
		// Two simultaneous first-logins can race on the unique indexes;
		// the loser re-reads the row the winner inserted.
		return s.recoverExisting(sub, email, err)
	}
	return user, nil
}

func (s *DefaultUserService) GetByID(id int64) (*entity.User, error) {
	return s.UserRepo.FindByID(id)
}

func (s *DefaultUserService) recoverExisting(sub, email string, saveErr error) (*entity.User, error) {
	if user, err := s.UserRepo.FindBySubject(sub); err == nil && user != nil {
		return user, nil
	}
	if user, err := s.UserRepo.FindByEmail(email); err == nil && user != nil {
		return user, nil
	}
	return nil, saveErr
}
