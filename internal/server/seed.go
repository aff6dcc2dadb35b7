package server

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/webtray/webtray/internal/models"
)

// Seed is the YAML fixture format for the dev backend.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Stores   []SeedStore `yaml:"stores"`
}

type SeedStore struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Currency    string         `yaml:"currency"`
	Categories  []SeedCategory `yaml:"categories"`
}

type SeedCategory struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Products    []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Quantity    int      `yaml:"quantity"`
	Images      []string `yaml:"images"`
	Hidden      bool     `yaml:"hidden"`
	Featured    bool     `yaml:"featured"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Apply loads the fixture into the repository.
func (r *Repository) Apply(seed *Seed) error {
	for _, su := range seed.Users {
		user := r.AddUser(su.Name, su.Email, su.Password)
		for _, ss := range su.Stores {
			currency := ss.Currency
			if currency == "" {
				currency = models.CurrencyNGN
			}
			store, err := r.CreateStore(user.ID, models.StoreInput{
				Name:        ss.Name,
				Slug:        ss.Slug,
				Description: ss.Description,
				Currency:    currency,
			})
			if err != nil {
				return fmt.Errorf("failed to seed store %q: %w", ss.Name, err)
			}
			for _, sc := range ss.Categories {
				category, err := r.CreateCategory(models.CategoryInput{
					StoreID:     store.ID,
					Name:        sc.Name,
					Description: sc.Description,
				})
				if err != nil {
					return fmt.Errorf("failed to seed category %q: %w", sc.Name, err)
				}
				for _, sp := range sc.Products {
					price, err := decimal.NewFromString(sp.Price)
					if err != nil {
						return fmt.Errorf("invalid price %q for %q: %w", sp.Price, sp.Name, err)
					}
					if _, err := r.CreateProduct(models.ProductInput{
						StoreID:     store.ID,
						CategoryID:  category.ID,
						Name:        sp.Name,
						Description: sp.Description,
						Price:       price,
						Quantity:    sp.Quantity,
						Images:      sp.Images,
						Visible:     !sp.Hidden,
						Featured:    sp.Featured,
					}); err != nil {
						return fmt.Errorf("failed to seed product %q: %w", sp.Name, err)
					}
				}
			}
		}
	}
	return nil
}
