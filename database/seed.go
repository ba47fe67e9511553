package database

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/course-market-api/model"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedResult carries the accounts created or found, so callers can mint dev tokens
type SeedResult struct {
	Admin      *model.User
	Instructor *model.User
	Student    *model.User
	Courses    []model.Course
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() (*SeedResult, error) {
	log.Println("🌱 Starting database seeding...")
	result := &SeedResult{}

	// Run seeds in order (respecting foreign key constraints)
	admin, err := s.SeedAdminUser()
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	result.Admin = admin

	instructor, student, err := s.SeedDemoUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to seed demo users: %w", err)
	}
	result.Instructor, result.Student = instructor, student

	courses, err := s.SeedCourses(instructor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to seed courses: %w", err)
	}
	result.Courses = courses

	log.Println("✅ Database seeding completed successfully!")
	return result, nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() (*model.User, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@course-market.local"
	}
	return s.firstOrCreateUser(adminEmail, "Platform Admin", model.RoleAdmin)
}

// SeedDemoUsers creates one instructor and one student
func (s *Seeder) SeedDemoUsers() (*model.User, *model.User, error) {
	instructor, err := s.firstOrCreateUser("instructor@course-market.local", "Demo Instructor", model.RoleInstructor)
	if err != nil {
		return nil, nil, err
	}
	student, err := s.firstOrCreateUser("student@course-market.local", "Demo Student", model.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	return instructor, student, nil
}

func (s *Seeder) firstOrCreateUser(email, name, role string) (*model.User, error) {
	user := model.User{Email: email, Name: name, Role: role}
	if err := s.db.Where(model.User{Email: email}).FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SeedCourses creates a free and a paid published course with a small curriculum
func (s *Seeder) SeedCourses(instructorID uint) ([]model.Course, error) {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return nil, err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		var existing []model.Course
		err := s.db.Order("id").Find(&existing).Error
		return existing, err
	}

	courses := []model.Course{
		{
			InstructorID: instructorID,
			Title:        "Go for Backend Engineers",
			Slug:         "go-for-backend-engineers",
			Description:  "Build HTTP services, talk to Postgres and ship them",
			Price:        0,
			Status:       model.CourseStatusPublished,
			Sections: []model.Section{
				{Title: "Getting started", Order: 1, Lessons: []model.Lesson{
					{Title: "Why Go", Type: model.LessonTypeVideo, Duration: 6, IsPreview: true, Order: 1, MediaKey: "courses/go/why-go.mp4"},
					{Title: "Toolchain tour", Type: model.LessonTypeVideo, Duration: 12, Order: 2, MediaKey: "courses/go/toolchain.mp4"},
				}},
				{Title: "Services", Order: 2, Lessons: []model.Lesson{
					{Title: "Routing with Fiber", Type: model.LessonTypeArticle, Duration: 15, Order: 1, Content: "Handlers, groups and middleware."},
					{Title: "Checkpoint quiz", Type: model.LessonTypeQuiz, Duration: 5, Order: 2},
				}},
			},
		},
		{
			InstructorID: instructorID,
			Title:        "Postgres Internals",
			Slug:         "postgres-internals",
			Description:  "MVCC, indexes and the query planner",
			Price:        1499,
			Currency:     "INR",
			Status:       model.CourseStatusPublished,
			Sections: []model.Section{
				{Title: "Storage", Order: 1, Lessons: []model.Lesson{
					{Title: "Heap pages", Type: model.LessonTypeVideo, Duration: 18, IsPreview: true, Order: 1, MediaKey: "courses/pg/heap.mp4"},
					{Title: "MVCC", Type: model.LessonTypeVideo, Duration: 22, Order: 2, MediaKey: "courses/pg/mvcc.mp4"},
					{Title: "B-tree indexes", Type: model.LessonTypeArticle, Duration: 14, Order: 3, Content: "Pages, splits and fill factor."},
				}},
			},
		},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range courses {
			// Lessons carry the denormalized course id, so the tree is written level by level
			sections := courses[i].Sections
			courses[i].Sections = nil
			if err := tx.Create(&courses[i]).Error; err != nil {
				return err
			}
			for j := range sections {
				lessons := sections[j].Lessons
				sections[j].Lessons = nil
				sections[j].CourseID = courses[i].ID
				if err := tx.Create(&sections[j]).Error; err != nil {
					return err
				}
				for k := range lessons {
					lessons[k].SectionID = sections[j].ID
					lessons[k].CourseID = courses[i].ID
				}
				if err := tx.Create(&lessons).Error; err != nil {
					return err
				}
				sections[j].Lessons = lessons
			}
			courses[i].Sections = sections
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Created %d courses\n", len(courses))
	return courses, nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) (*SeedResult, error) {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
