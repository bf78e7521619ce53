package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/database"
	"github.com/maxhub/max-backend/internal/logger"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/repository"
	"github.com/maxhub/max-backend/internal/service"
)

// seed-demo fills the database with a demo faculty: teachers, curated
// groups, students, subjects and a week of schedule slots. Existing
// rows are kept; reruns only add what is missing.

const (
	teacherPassword = "teacher123"
	studentCount    = 12 // per group
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo, authService)

	// Deterministic layout so reruns skip instead of duplicating.
	rng := rand.New(rand.NewSource(42))

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Teachers ──────────────────────────────────────────────────────
	teacherNames := [][2]string{
		{"Ivan", "Ivanov"}, {"Pyotr", "Petrov"}, {"Anna", "Sidorova"},
		{"Maria", "Kozlova"}, {"Sergey", "Volkov"}, {"Elena", "Novikova"},
		{"Dmitry", "Morozov"}, {"Olga", "Lebedeva"},
	}

	teacherIDs := make([]int, 0, len(teacherNames))
	for _, name := range teacherNames {
		email := strings.ToLower(name[1]) + "@university.example"
		id, err := ensureUser(ctx, userRepo, userService, &model.User{
			Username:  strings.ToLower(name[1]),
			FirstName: name[0],
			LastName:  name[1],
			Role:      model.RoleTeacher,
			Email:     email,
		}, teacherPassword)
		if err != nil {
			log.Fatal().Err(err).Str("email", email).Msg("Failed to seed teacher")
		}
		teacherIDs = append(teacherIDs, id)
	}
	fmt.Printf("Teachers ready: %d\n", len(teacherIDs))

	// ─── Groups (each curated by one teacher) ──────────────────────────
	groupNames := []string{"IS-301", "IS-302", "AI-401", "AI-402", "IS-201", "IS-202", "SE-501", "SE-502"}

	groupIDs := make([]int, 0, len(groupNames))
	for i, name := range groupNames {
		curator := teacherIDs[i%len(teacherIDs)]
		id, err := ensureGroup(ctx, pool, groupRepo, name, curator)
		if err != nil {
			log.Fatal().Err(err).Str("group", name).Msg("Failed to seed group")
		}
		groupIDs = append(groupIDs, id)
	}
	fmt.Printf("Groups ready: %d\n", len(groupIDs))

	// ─── Subjects ──────────────────────────────────────────────────────
	subjectNames := []string{
		"Programming", "Databases", "Web Development",
		"Algorithms and Data Structures", "Mathematics", "Physics",
		"Computer Science", "Probability Theory", "Discrete Mathematics",
		"Computer Networks", "Operating Systems", "Computer Architecture",
	}

	subjectIDs := make([]int, 0, len(subjectNames))
	for _, name := range subjectNames {
		id, err := ensureSubject(ctx, pool, subjectRepo, name)
		if err != nil {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to seed subject")
		}
		subjectIDs = append(subjectIDs, id)
	}
	fmt.Printf("Subjects ready: %d\n", len(subjectIDs))

	// ─── Students ──────────────────────────────────────────────────────
	studentsCreated := 0
	for gi, groupID := range groupIDs {
		gid := groupID
		for si := 0; si < studentCount; si++ {
			email := fmt.Sprintf("student%d.%d@university.example", gi+1, si+1)
			user := &model.User{
				Username:  fmt.Sprintf("student%d_%d", gi+1, si+1),
				FirstName: fmt.Sprintf("Student%d", si+1),
				LastName:  groupNames[gi],
				Role:      model.RoleStudent,
				Email:     email,
				GroupID:   &gid,
			}
			if _, err := ensureUser(ctx, userRepo, userService, user, "student123"); err != nil {
				log.Fatal().Err(err).Str("email", email).Msg("Failed to seed student")
			}
			studentsCreated++
		}
	}
	fmt.Printf("Students ready: %d\n", studentsCreated)

	// ─── Schedule ──────────────────────────────────────────────────────
	timeSlots := [][2]string{
		{"09:00", "10:30"},
		{"10:45", "12:15"},
		{"12:30", "14:00"},
		{"14:15", "15:45"},
		{"16:00", "17:30"},
	}
	rooms := []string{"101", "102", "103", "205", "206", "207", "308", "309", "412", "413"}
	lessonTypes := []model.LessonType{model.LessonLecture, model.LessonPractice, model.LessonLab}

	slotsCreated := 0
	for gi, groupID := range groupIDs {
		teacherID := teacherIDs[gi%len(teacherIDs)]

		for day := 1; day <= 5; day++ {
			perDay := 3 + rng.Intn(2)
			for li := 0; li < perDay && li < len(timeSlots); li++ {
				parity := model.WeekEvery
				// Roughly a third of the slots alternate by week.
				if rng.Float64() < 0.3 {
					parity = model.WeekOdd
					if rng.Float64() < 0.5 {
						parity = model.WeekEven
					}
				}

				slot := &model.LessonSlot{
					SubjectID:  subjectIDs[rng.Intn(len(subjectIDs))],
					GroupID:    groupID,
					TeacherID:  teacherID,
					DayOfWeek:  day,
					TimeStart:  timeSlots[li][0],
					TimeEnd:    timeSlots[li][1],
					Room:       rooms[rng.Intn(len(rooms))],
					WeekParity: parity,
					LessonType: lessonTypes[rng.Intn(len(lessonTypes))],
				}

				created, err := ensureSlot(ctx, pool, lessonRepo, slot)
				if err != nil {
					log.Fatal().Err(err).Msg("Failed to seed schedule slot")
				}
				if created {
					slotsCreated++
				}
			}
		}
	}
	fmt.Printf("Schedule slots created: %d\n", slotsCreated)

	fmt.Println("\nSeed completed!")
	fmt.Printf("Teacher password: %s\n", teacherPassword)
}

// ensureUser creates the account unless the email is already taken.
func ensureUser(ctx context.Context, repo *repository.UserRepository, users *service.UserService, user *model.User, password string) (int, error) {
	if existing, err := repo.GetByEmail(ctx, user.Email); err == nil {
		return existing.ID, nil
	}
	if err := users.Create(ctx, user, password); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func ensureGroup(ctx context.Context, pool *pgxpool.Pool, repo *repository.GroupRepository, name string, curatorID int) (int, error) {
	var id int
	err := pool.QueryRow(ctx, `SELECT id FROM groups WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	group := &model.Group{Name: name, CuratorID: &curatorID}
	if err := repo.Create(ctx, group); err != nil {
		return 0, err
	}
	return group.ID, nil
}

func ensureSubject(ctx context.Context, pool *pgxpool.Pool, repo *repository.SubjectRepository, name string) (int, error) {
	var id int
	err := pool.QueryRow(ctx, `SELECT id FROM subjects WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	subject := &model.Subject{Name: name}
	if err := repo.Create(ctx, subject); err != nil {
		return 0, err
	}
	return subject.ID, nil
}

// ensureSlot inserts the slot unless an identical one already exists.
func ensureSlot(ctx context.Context, pool *pgxpool.Pool, repo *repository.LessonRepository, slot *model.LessonSlot) (bool, error) {
	var id int
	err := pool.QueryRow(ctx, `
		SELECT id FROM schedule
		WHERE subject_id = $1 AND group_id = $2 AND teacher_id = $3
		  AND day_of_week = $4 AND to_char(time_start, 'HH24:MI') = $5
		  AND week_type = $6`,
		slot.SubjectID, slot.GroupID, slot.TeacherID,
		slot.DayOfWeek, slot.TimeStart, int(slot.WeekParity),
	).Scan(&id)
	if err == nil {
		return false, nil
	}

	if err := repo.Create(ctx, slot); err != nil {
		return false, err
	}
	return true, nil
}
