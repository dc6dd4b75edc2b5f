package database

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ezhulati/liftout-platform-sub011/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/demo.yaml
var demoFixtures string

type Fixtures struct {
	Companies     []CompanyFixture     `yaml:"companies"`
	Users         []UserFixture        `yaml:"users"`
	Teams         []TeamFixture        `yaml:"teams"`
	Opportunities []OpportunityFixture `yaml:"opportunities"`
}

type CompanyFixture struct {
	Name     string `yaml:"name"`
	Website  string `yaml:"website"`
	Industry string `yaml:"industry"`
}

type UserFixture struct {
	Email     string          `yaml:"email"`
	Password  string          `yaml:"password"`
	FirstName string          `yaml:"first_name"`
	LastName  string          `yaml:"last_name"`
	Role      models.UserRole `yaml:"role"`
	Company   string          `yaml:"company"`
}

type TeamFixture struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Creator     string          `yaml:"creator"`
	Members     []MemberFixture `yaml:"members"`
}

type MemberFixture struct {
	Email string `yaml:"email"`
	Lead  bool   `yaml:"lead"`
}

type OpportunityFixture struct {
	Title       string                       `yaml:"title"`
	Description string                       `yaml:"description"`
	Company     string                       `yaml:"company"`
	CreatedBy   string                       `yaml:"created_by"`
	Location    string                       `yaml:"location"`
	TeamSizeMin int                          `yaml:"team_size_min"`
	TeamSizeMax int                          `yaml:"team_size_max"`
	Visibility  models.OpportunityVisibility `yaml:"visibility"`
}

// PasswordHasher turns a plain password into the stored hash.
type PasswordHasher func(password string) (string, error)

// LoadFixtures decodes a YAML fixture file.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &fx, nil
}

// DemoFixtures returns the embedded demo data set.
func DemoFixtures() (*Fixtures, error) {
	return LoadFixtures(strings.NewReader(demoFixtures))
}

// Seed inserts fixtures in one transaction. Users whose email already exists
// are reused, so seeding twice is harmless.
func Seed(db *gorm.DB, fx *Fixtures, hash PasswordHasher) error {
	return db.Transaction(func(tx *gorm.DB) error {
		companies := map[string]*models.Company{}
		for _, cf := range fx.Companies {
			company := models.Company{Name: cf.Name}
			if err := tx.Where(models.Company{Name: cf.Name}).
				Attrs(models.Company{Website: cf.Website, Industry: cf.Industry}).
				FirstOrCreate(&company).Error; err != nil {
				return fmt.Errorf("seed company %q: %w", cf.Name, err)
			}
			companies[cf.Name] = &company
		}

		users := map[string]*models.User{}
		for _, uf := range fx.Users {
			var user models.User
			err := tx.Where("email = ?", uf.Email).First(&user).Error
			if err == nil {
				users[uf.Email] = &user
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			passwordHash, err := hash(uf.Password)
			if err != nil {
				return err
			}
			user = models.User{
				Email:        uf.Email,
				PasswordHash: passwordHash,
				FirstName:    uf.FirstName,
				LastName:     uf.LastName,
				Role:         uf.Role,
			}
			if uf.Company != "" {
				company, ok := companies[uf.Company]
				if !ok {
					return fmt.Errorf("user %s references unknown company %q", uf.Email, uf.Company)
				}
				user.CompanyID = &company.ID
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", uf.Email, err)
			}
			users[uf.Email] = &user
		}

		for _, tf := range fx.Teams {
			creator, ok := users[tf.Creator]
			if !ok {
				return fmt.Errorf("team %q references unknown creator %s", tf.Name, tf.Creator)
			}

			var existing int64
			tx.Model(&models.Team{}).Where("name = ? AND created_by = ?", tf.Name, creator.ID).Count(&existing)
			if existing > 0 {
				continue
			}

			team := models.Team{Name: tf.Name, Description: tf.Description, CreatedBy: creator.ID, Size: 1 + len(tf.Members)}
			if err := tx.Create(&team).Error; err != nil {
				return fmt.Errorf("seed team %q: %w", tf.Name, err)
			}

			members := []models.TeamMember{{
				TeamID: team.ID, UserID: creator.ID,
				Role: models.MemberRoleAdmin, Status: models.MemberStatusActive,
				IsLead: true, IsAdmin: true,
			}}
			for _, mf := range tf.Members {
				user, ok := users[mf.Email]
				if !ok {
					return fmt.Errorf("team %q references unknown member %s", tf.Name, mf.Email)
				}
				role := models.MemberRoleMember
				if mf.Lead {
					role = models.MemberRoleLead
				}
				members = append(members, models.TeamMember{
					TeamID: team.ID, UserID: user.ID,
					Role: role, Status: models.MemberStatusActive, IsLead: mf.Lead,
				})
			}
			if err := tx.Create(&members).Error; err != nil {
				return fmt.Errorf("seed members of %q: %w", tf.Name, err)
			}
		}

		for _, of := range fx.Opportunities {
			company, ok := companies[of.Company]
			if !ok {
				return fmt.Errorf("opportunity %q references unknown company %q", of.Title, of.Company)
			}
			author, ok := users[of.CreatedBy]
			if !ok {
				return fmt.Errorf("opportunity %q references unknown user %s", of.Title, of.CreatedBy)
			}
			opp := models.Opportunity{
				CompanyID:   company.ID,
				CreatedBy:   author.ID,
				Title:       of.Title,
				Description: of.Description,
				Location:    of.Location,
				TeamSizeMin: of.TeamSizeMin,
				TeamSizeMax: of.TeamSizeMax,
				Status:      models.OpportunityStatusActive,
				Visibility:  of.Visibility,
			}
			if err := tx.Where(models.Opportunity{CompanyID: company.ID, Title: of.Title}).
				Attrs(opp).FirstOrCreate(&opp).Error; err != nil {
				return fmt.Errorf("seed opportunity %q: %w", of.Title, err)
			}
		}

		return nil
	})
}
