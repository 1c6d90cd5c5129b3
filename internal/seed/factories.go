// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"murmur/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password every seeded user gets.
const DefaultPassword = "Password-123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rnd  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// suffix that keeps generated usernames unique
	seq int
	// bcrypt is slow; every seeded user shares one hash
	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rnd: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.passwordHash == "" {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.passwordHash = string(hashed)
	}
	return f.passwordHash
}

// backdate returns a realistic created_at within the configured window.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rnd.Intn(maxDays)
	hoursBack := f.rnd.Intn(24)
	minsBack := f.rnd.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// clip trims s to the content limit on a rune boundary.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= models.MaxContentLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:models.MaxContentLength]))
}

// BuildUser constructs an unsaved user with a unique, valid username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	name := strings.ToLower(gofakeit.Username())
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, name)
	if len(name) > 20 {
		name = name[:20]
	}
	name = strings.Trim(name, "_")
	if name == "" {
		name = "user"
	}
	f.seq++
	username := fmt.Sprintf("%s%d", name, f.seq)

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		Password: f.password(),
		Bio:      clip(gofakeit.Sentence(10)),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Role:     models.RoleUser,
		Active:   true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs an unsaved post for owner, backdated within MaxDays.
// Roughly a third of posts carry an image reference.
func (f *Factory) BuildPost(owner *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		OwnerID:     owner.ID,
		Content:     clip(gofakeit.Paragraph(1, 3, 8, " ")),
		TaggedUsers: []string{},
		CreatedAt:   f.backdate(),
	}
	if f.rnd.Intn(3) == 0 {
		post.ImageRef = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(&posts, batch).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(owner *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		OwnerID:   owner.ID,
		PostID:    post.ID,
		Content:   clip(gofakeit.Sentence(8)),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rnd.Intn(240)+1) * time.Minute),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.persist(comment); err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		comment.ID = f.nextID
	}
	return comment, nil
}

// CreateReply persists a reply under comment. The reply's post is always
// the comment's post.
func (f *Factory) CreateReply(owner *models.User, comment *models.Comment, overrides ...func(*models.Reply)) (*models.Reply, error) {
	reply := &models.Reply{
		OwnerID:   owner.ID,
		PostID:    comment.PostID,
		CommentID: comment.ID,
		Content:   clip(gofakeit.Sentence(6)),
		CreatedAt: comment.CreatedAt.Add(time.Duration(f.rnd.Intn(120)+1) * time.Minute),
	}
	for _, override := range overrides {
		override(reply)
	}
	if err := f.persist(reply); err != nil {
		return nil, err
	}
	if f.opts.DryRun {
		reply.ID = f.nextID
	}
	return reply, nil
}

// RandomReactionType picks one of the known reaction types.
func (f *Factory) RandomReactionType() models.ReactionType {
	types := []models.ReactionType{
		models.ReactionLike, models.ReactionLike, models.ReactionLove,
		models.ReactionHaha, models.ReactionSad, models.ReactionHate,
	}
	return types[f.rnd.Intn(len(types))]
}

// CreateReaction persists a reaction from owner on target.
func (f *Factory) CreateReaction(owner *models.User, target models.ReactionTarget, reactionType models.ReactionType) (*models.Reaction, error) {
	reaction := models.NewReaction(owner.ID, target, reactionType)
	if err := f.persist(reaction); err != nil {
		return nil, err
	}
	return reaction, nil
}

// CreateFollow persists a follower -> followee edge.
func (f *Factory) CreateFollow(follower, followee *models.User) (*models.Follow, error) {
	follow := &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
	if err := f.persist(follow); err != nil {
		return nil, err
	}
	return follow, nil
}

func (f *Factory) persist(v interface{}) error {
	if f.opts.DryRun {
		f.nextID++
		return nil
	}
	return f.db.Create(v).Error
}
