// Package seed fills an empty database with demo doctors and services.
package seed

import (
	"context"
	"fmt"
	"strings"

	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var specializations = []string{
	"General Dentistry",
	"Orthodontics",
	"Endodontics",
	"Periodontics",
	"Pediatric Dentistry",
	"Oral Surgery",
}

type serviceTemplate struct {
	name        string
	description string
	minutes     int
	price       int64
}

var serviceCatalog = []serviceTemplate{
	{"Consultation", "Initial examination and treatment plan", 30, 50},
	{"Teeth Cleaning", "Scaling and polishing", 30, 80},
	{"Filling", "Composite filling of a single tooth", 30, 120},
	{"Tooth Extraction", "Simple extraction under local anaesthetic", 30, 150},
	{"Root Canal", "Endodontic treatment of one tooth", 30, 400},
	{"Teeth Whitening", "In-office whitening session", 30, 250},
}

// Result counts the rows inserted by a run.
type Result struct {
	Doctors  int
	Services int
}

type Seeder struct {
	db          *gorm.DB
	log         *logrus.Logger
	doctorRepo  repository.DoctorRepository
	serviceRepo repository.ServiceRepository
	faker       *gofakeit.Faker
}

// NewSeeder returns a seeder whose fake data is reproducible for a non-zero seed.
func NewSeeder(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	serviceRepo repository.ServiceRepository,
	seed uint64,
) *Seeder {
	return &Seeder{
		db:          db,
		log:         log,
		doctorRepo:  doctorRepo,
		serviceRepo: serviceRepo,
		faker:       gofakeit.New(seed),
	}
}

// Run inserts the service catalog and the requested number of doctors. Rows
// that already exist (services by name, doctors by email) are skipped.
func (s *Seeder) Run(ctx context.Context, doctors int) (*Result, error) {
	tx := s.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	result := &Result{}

	services, err := s.serviceRepo.FindAll(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	existing := make(map[string]bool, len(services))
	for i := range services {
		existing[strings.ToLower(services[i].Name)] = true
	}

	for _, tmpl := range serviceCatalog {
		if existing[strings.ToLower(tmpl.name)] {
			continue
		}
		svc := &entity.Service{
			Name:            tmpl.name,
			Description:     tmpl.description,
			DurationMinutes: tmpl.minutes,
			Price:           decimal.NewFromInt(tmpl.price),
		}
		if err := s.serviceRepo.Create(tx, svc); err != nil {
			return nil, fmt.Errorf("failed to create service %q: %w", tmpl.name, err)
		}
		result.Services++
	}

	for i := 0; i < doctors; i++ {
		// Every value is drawn before the existence check so a re-run with
		// the same seed walks the same sequence.
		doctor := s.fakeDoctor(i)

		found, err := s.doctorRepo.FindByEmail(tx, doctor.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up doctor: %w", err)
		}
		if found != nil {
			continue
		}

		if err := s.doctorRepo.Create(tx, doctor); err != nil {
			return nil, fmt.Errorf("failed to create doctor: %w", err)
		}
		result.Doctors++
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit seed data: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"doctors":  result.Doctors,
		"services": result.Services,
	}).Info("Seed data inserted")

	return result, nil
}

func (s *Seeder) fakeDoctor(i int) *entity.Doctor {
	first := s.faker.FirstName()
	last := s.faker.LastName()
	specialization := specializations[s.faker.Number(0, len(specializations)-1)]
	phone := s.faker.Phone()

	return &entity.Doctor{
		FirstName:      first,
		LastName:       last,
		Specialization: specialization,
		Email:          fmt.Sprintf("%s.%s%d@clinic.example", strings.ToLower(first), strings.ToLower(last), i+1),
		Phone:          phone,
	}
}
