package database

import (
	"context"
	"errors"
	"fmt"
	"os"

	"shareit/internal/domain"
	"shareit/internal/models"

	"gopkg.in/yaml.v2"
)

// Seed describes demo data loaded at startup.
type Seed struct {
	Users []models.User `yaml:"users"`
	Items []SeedItem    `yaml:"items"`
}

// SeedItem references its owner by email so the file stays id-agnostic.
type SeedItem struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   bool   `yaml:"available"`
	OwnerEmail  string `yaml:"owner"`
}

// LoadSeed reads a seed file. A missing file yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Seed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &seed, nil
}

// ApplySeed inserts seed users and items that are not present yet.
// Users are matched by email, items by owner and name.
func (db *DB) ApplySeed(ctx context.Context, seed *Seed) error {
	if seed == nil {
		return nil
	}
	return db.WithinTx(ctx, func(tx domain.Repository) error {
		txDB := tx.(*DB)
		for i := range seed.Users {
			u := seed.Users[i]
			if _, err := txDB.GetUserByEmail(ctx, u.Email); err == nil {
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if err := txDB.CreateUser(ctx, &models.User{Name: u.Name, Email: u.Email}); err != nil {
				return err
			}
		}

		for _, si := range seed.Items {
			owner, err := txDB.GetUserByEmail(ctx, si.OwnerEmail)
			if err != nil {
				return fmt.Errorf("seed item %q: %w", si.Name, err)
			}
			var count int64
			if err := txDB.gorm.WithContext(ctx).Model(&models.Item{}).
				Where("owner_id = ? AND name = ?", owner.ID, si.Name).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			item := &models.Item{
				Name:        si.Name,
				Description: si.Description,
				Available:   si.Available,
				OwnerID:     owner.ID,
			}
			if err := txDB.CreateItem(ctx, item); err != nil {
				return err
			}
		}

		db.logger.Info().Int("users", len(seed.Users)).Int("items", len(seed.Items)).Msg("seed applied")
		return nil
	})
}
