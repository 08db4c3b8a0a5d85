package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"bookingcrm/internal/config"
	"bookingcrm/internal/database"
	"bookingcrm/internal/domain"
	"bookingcrm/internal/modules/auth"
	jwtsvc "bookingcrm/internal/pkg/jwt"
	"bookingcrm/internal/repository"
)

type seedUser struct {
	name  string
	email string
	role  domain.UserRole
}

var users = []seedUser{
	{"Asha Verma", "srdev@bookingcrm.local", domain.RoleSrDev},
	{"Meera Iyer", "admin@bookingcrm.local", domain.RoleAdmin},
	{"Ravi Kumar", "ravi@bookingcrm.local", domain.RoleBDM},
	{"Anita Shah", "anita@bookingcrm.local", domain.RoleBDM},
	{"Kiran Rao", "hr@bookingcrm.local", domain.RoleHR},
}

var (
	companies = []string{"Acme Traders", "Beta Foods", "Gamma Textiles", "Delta Logistics", "Sunrise Agro", "Nova Pharma", "Blue Ocean Exports", "Kaveri Steels"}
	services  = []string{"GST Registration", "MSME Certificate", "Trademark", "Company Incorporation", "ISO Certification", "Import Export Code"}
	states    = []string{"Gujarat", "Maharashtra", "Karnataka", "Tamil Nadu", "Delhi"}
	banks     = []string{"HDFC", "ICICI", "SBI", "Axis"}
	statuses  = []domain.BookingStatus{domain.BookingPending, domain.BookingInProgress, domain.BookingCompleted}
)

func main() {
	count := flag.Int("bookings", 60, "number of bookings to create")
	password := flag.String("password", "password123", "password for every seeded user")
	reset := flag.Bool("reset", true, "delete existing users and bookings first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	if *reset {
		log.Println("Cleaning old data...")
		db.Exec("DELETE FROM bookings")
		db.Exec("DELETE FROM users")
	}

	ctx := context.Background()
	authService := auth.NewService(repository.NewUserRepository(db), jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL))

	log.Println("Creating users...")
	var bdms []*domain.User
	for _, su := range users {
		u, err := authService.Register(ctx, auth.RegisterRequest{
			Name:     su.name,
			Email:    su.email,
			Password: *password,
			Role:     string(su.role),
		})
		if err != nil {
			log.Fatalf("create user %s: %v", su.email, err)
		}
		log.Printf("user created: %s / %s (%s)", su.email, *password, su.role)
		if u.Role == domain.RoleBDM {
			bdms = append(bdms, u)
		}
	}

	log.Println("Creating bookings...")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	bookings := repository.NewBookingRepository(db)
	now := time.Now().UTC()

	for i := 0; i < *count; i++ {
		owner := bdms[rng.Intn(len(bdms))]
		b := randomBooking(rng, owner, now, i)
		if err := bookings.Create(ctx, &b); err != nil {
			log.Fatalf("create booking %d: %v", i, err)
		}
	}

	log.Printf("Seed completed: users=%d bookings=%d", len(users), *count)
}

func randomBooking(rng *rand.Rand, owner *domain.User, now time.Time, i int) domain.Booking {
	day := now.AddDate(0, 0, -rng.Intn(365)).Truncate(24 * time.Hour)
	total := float64(5000 + rng.Intn(20)*1000)

	b := domain.Booking{
		UserID:        owner.ID,
		CompanyName:   fmt.Sprintf("%s %d", companies[rng.Intn(len(companies))], i+1),
		ContactPerson: fmt.Sprintf("Contact %d", i+1),
		ContactNo:     fmt.Sprintf("98%08d", rng.Intn(100000000)),
		Email:         fmt.Sprintf("contact%d@example.com", i+1),
		Services:      domain.Services{services[rng.Intn(len(services))]},
		State:         states[rng.Intn(len(states))],
		TotalAmount:   total,
		Date:          &day,
		CreatedAt:     day.Add(time.Duration(rng.Intn(24)) * time.Hour),
		Status:        statuses[rng.Intn(len(statuses))],
		BDM:           owner.Name,
		ClosedBy:      owner.Name,
		Bank:          banks[rng.Intn(len(banks))],
	}
	if rng.Intn(3) == 0 {
		b.Services = append(b.Services, services[rng.Intn(len(services))])
	}

	// Up to three installments, never more than the total.
	remaining := total
	for _, term := range []**float64{&b.Term1, &b.Term2, &b.Term3} {
		if remaining <= 0 || rng.Intn(2) == 0 {
			break
		}
		v := float64(int(remaining*0.5) / 100 * 100)
		if v <= 0 {
			break
		}
		*term = &v
		remaining -= v
	}
	if b.Term1 != nil {
		paid := day.AddDate(0, 0, rng.Intn(10))
		b.PaymentDate = &paid
	}
	return b
}
