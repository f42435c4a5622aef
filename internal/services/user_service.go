package services

import (
	"context"
	"errors"
	"fmt"

	"social-backend/internal/models"
	"social-backend/internal/store"
	"social-backend/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUserExists   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
	ErrValidation   = errors.New("invalid input")
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// RegisterInput carries the fields accepted on registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Gender    string
}

// Register creates a user with a bcrypt password hash and, when a profile
// picture reference is provided, stores it alongside the account.
func (s *UserService) Register(ctx context.Context, in RegisterInput, picture *models.Picture) (*models.UserProfile, error) {
	if in.FirstName == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: firstName, email and password are required", ErrValidation)
	}
	if in.Gender != "" && !models.ValidGender(in.Gender) {
		return nil, fmt.Errorf("%w: gender %q is not supported", ErrValidation, in.Gender)
	}

	if _, err := s.store.FindOne(ctx, store.Users, store.M{"email": in.Email}); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Insert(ctx, store.Users, models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  string(hash),
		Gender:    in.Gender,
	})
	if err != nil {
		return nil, err
	}
	user, err := store.Decode[models.User](doc)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		User:            user,
		ProfilePictures: []models.Picture{},
		Followers:       []models.Follow{},
		Followings:      []models.Follow{},
	}

	if picture != nil {
		picture.UserID = user.ID
		picDoc, err := s.store.Insert(ctx, store.Pictures, *picture)
		if err != nil {
			return nil, err
		}
		pic, err := store.Decode[models.Picture](picDoc)
		if err != nil {
			return nil, err
		}
		profile.ProfilePictures = append(profile.ProfilePictures, pic)
	}

	return profile, nil
}

// GetByID returns a user's profile. Sub-fetch failures surface as errors
// because this is a single-item lookup.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	doc, err := s.store.FindByID(ctx, store.Users, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user, err := store.Decode[models.User](doc)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

// GetAll lists every user profile. Entries whose sub-fetches fail are dropped
// rather than failing the whole listing.
func (s *UserService) GetAll(ctx context.Context) ([]models.UserProfile, error) {
	docs, err := s.store.Find(ctx, store.Users, store.M{})
	if err != nil {
		return nil, err
	}
	return s.buildProfiles(ctx, docs)
}

// Search matches the query case-insensitively against first name, last name
// and email.
func (s *UserService) Search(ctx context.Context, query string) ([]models.UserProfile, error) {
	pattern := store.M{"$regex": query, "$options": "i"}
	docs, err := s.store.Find(ctx, store.Users, store.M{"$or": []store.M{
		{"firstName": pattern},
		{"lastName": pattern},
		{"email": pattern},
	}})
	if err != nil {
		return nil, err
	}
	return s.buildProfiles(ctx, docs)
}

// UpdateInput carries the mutable profile fields; nil pointers are left
// untouched.
type UpdateInput struct {
	FirstName          *string
	LastName           *string
	Email              *string
	Gender             *string
	JobTitle           *string
	RelationshipStatus *string
	City               *string
	State              *string
	Country            *string
	Phone              *models.Phone
	AboutMe            *string
}

func (s *UserService) Update(ctx context.Context, userID string, in UpdateInput) (*models.User, error) {
	if in.Gender != nil && *in.Gender != "" && !models.ValidGender(*in.Gender) {
		return nil, fmt.Errorf("%w: gender %q is not supported", ErrValidation, *in.Gender)
	}
	if in.AboutMe != nil && len(*in.AboutMe) > models.AboutMeMaxLength {
		return nil, fmt.Errorf("%w: aboutMe exceeds %d characters", ErrValidation, models.AboutMeMaxLength)
	}

	patch := store.M{}
	setString := func(key string, v *string) {
		if v != nil {
			patch[key] = *v
		}
	}
	setString("firstName", in.FirstName)
	setString("lastName", in.LastName)
	setString("email", in.Email)
	setString("gender", in.Gender)
	setString("jobTitle", in.JobTitle)
	setString("relationshipStatus", in.RelationshipStatus)
	setString("city", in.City)
	setString("state", in.State)
	setString("country", in.Country)
	setString("aboutMe", in.AboutMe)
	if in.Phone != nil {
		patch["phone"] = store.M{"areaCode": in.Phone.AreaCode, "number": in.Phone.Number}
	}

	doc, err := s.store.UpdateByID(ctx, store.Users, userID, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user, err := store.Decode[models.User](doc)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Follow records that userID follows followeeID. An existing edge is returned
// as-is instead of creating a duplicate.
func (s *UserService) Follow(ctx context.Context, userID, followeeID string) (*models.Follow, error) {
	existing, err := s.store.FindOne(ctx, store.Followers, store.M{"userId": userID, "followeeId": followeeID})
	if err == nil {
		edge, err := store.Decode[models.Follow](existing)
		if err != nil {
			return nil, err
		}
		return &edge, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	doc, err := s.store.Insert(ctx, store.Followers, models.Follow{UserID: userID, FolloweeID: followeeID})
	if err != nil {
		return nil, err
	}
	edge, err := store.Decode[models.Follow](doc)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Unfollow removes the edge; removing a missing edge is not an error.
func (s *UserService) Unfollow(ctx context.Context, userID, followeeID string) error {
	_, err := s.store.DeleteOne(ctx, store.Followers, store.M{"userId": userID, "followeeId": followeeID})
	return err
}

// Following returns the ids of the accounts userID follows.
func (s *UserService) Following(ctx context.Context, userID string) ([]string, error) {
	docs, err := s.store.Find(ctx, store.Followers, store.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	edges, err := store.DecodeAll[models.Follow](docs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FolloweeID)
	}
	return ids, nil
}

// Followers returns the ids of the accounts following userID.
func (s *UserService) Followers(ctx context.Context, userID string) ([]string, error) {
	docs, err := s.store.Find(ctx, store.Followers, store.M{"followeeId": userID})
	if err != nil {
		return nil, err
	}
	edges, err := store.DecodeAll[models.Follow](docs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.UserID)
	}
	return ids, nil
}

// ListFollowers returns the accounts following userID as user summaries.
func (s *UserService) ListFollowers(ctx context.Context, userID string) ([]models.UserSummary, error) {
	ids, err := s.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, ids)
}

// ListFollowings returns the accounts userID follows as user summaries.
func (s *UserService) ListFollowings(ctx context.Context, userID string) ([]models.UserSummary, error) {
	ids, err := s.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, ids)
}

// summaries resolves user ids into summaries, dropping ids whose account or
// picture lookup fails (bulk-listing policy).
func (s *UserService) summaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.summary(ctx, id)
		if err != nil {
			utils.LogError(err, "user summary "+id)
			continue
		}
		out = append(out, *summary)
	}
	return out, nil
}

func (s *UserService) summary(ctx context.Context, userID string) (*models.UserSummary, error) {
	var user models.User
	var pictures []models.Picture

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.store.FindByID(gctx, store.Users, userID)
		if err != nil {
			return err
		}
		user, err = store.Decode[models.User](doc)
		return err
	})
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Pictures, store.M{"userId": userID})
		if err != nil {
			return err
		}
		pictures, err = store.DecodeAll[models.Picture](docs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &models.UserSummary{User: user}
	if len(pictures) > 0 {
		summary.ProfilePicture = &pictures[0]
	}
	return summary, nil
}

func (s *UserService) buildProfiles(ctx context.Context, docs []store.M) ([]models.UserProfile, error) {
	users, err := store.DecodeAll[models.User](docs)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.UserProfile, 0, len(users))
	for _, user := range users {
		profile, err := s.buildProfile(ctx, user)
		if err != nil {
			utils.LogError(err, "user profile "+user.ID)
			continue
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

// buildProfile joins a user with their pictures and both directions of the
// follow graph, fetched concurrently.
func (s *UserService) buildProfile(ctx context.Context, user models.User) (*models.UserProfile, error) {
	profile := &models.UserProfile{
		User:            user,
		ProfilePictures: []models.Picture{},
		Followers:       []models.Follow{},
		Followings:      []models.Follow{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Followers, store.M{"userId": user.ID})
		if err != nil {
			return err
		}
		edges, err := store.DecodeAll[models.Follow](docs)
		if err != nil {
			return err
		}
		profile.Followings = edges
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Followers, store.M{"followeeId": user.ID})
		if err != nil {
			return err
		}
		edges, err := store.DecodeAll[models.Follow](docs)
		if err != nil {
			return err
		}
		profile.Followers = edges
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.Find(gctx, store.Pictures, store.M{"userId": user.ID})
		if err != nil {
			return err
		}
		pics, err := store.DecodeAll[models.Picture](docs)
		if err != nil {
			return err
		}
		profile.ProfilePictures = pics
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}
