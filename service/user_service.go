package service

import (
	"context"
	"fmt"
	"strings"

	"arenaserver/models"

	log "github.com/sirupsen/logrus"
)

type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// GetOrCreateUser returns the account for a username, creating it on first
// sight. Referral attribution only applies at creation; an unknown referrer
// id is dropped rather than rejected.
func (s *userService) GetOrCreateUser(ctx context.Context, username string, referredBy *int64) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if referredBy != nil {
		referrer, err := uow.UserRepository().GetByID(ctx, *referredBy)
		if err != nil {
			return nil, fmt.Errorf("failed to get referrer: %w", err)
		}
		if referrer == nil {
			referredBy = nil
		}
	}

	user, err = uow.UserRepository().Create(ctx, username, referredBy, s.startingBalance)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": username,
	}).Info("Created new account")

	return user, nil
}

// GetProfile assembles the account read model: balance, derived stats, the
// active match and recent ledger activity.
func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	profile := &models.Profile{
		User:    user,
		WinRate: user.WinRate(),
	}

	if user.ActiveMatchID != nil {
		match, err := uow.MatchRepository().GetByID(ctx, *user.ActiveMatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get active match: %w", err)
		}
		profile.ActiveMatch = match
	}

	entries, err := uow.LedgerEntryRepository().ListByUser(ctx, userID, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	profile.RecentEntries = entries

	return profile, nil
}

// GetLedger returns a user's recent ledger history, newest first.
func (s *userService) GetLedger(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	return uow.LedgerEntryRepository().ListByUser(ctx, userID, limit)
}

// GetMatch retrieves a match by id
func (s *userService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}

	return match, nil
}
