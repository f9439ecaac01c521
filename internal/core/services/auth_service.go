package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"korfarm-api/internal/adapters/persistence/models"
	"korfarm-api/internal/adapters/persistence/repositories"
	"korfarm-api/internal/config"
	"korfarm-api/internal/core/domain"
	"korfarm-api/internal/pkg/jwt"
	"korfarm-api/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService handles signup, login, token lifecycle and profile mutation
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	orgRepo          repositories.OrgRepository
	membershipRepo   repositories.MembershipRepository
	roleService      *RoleService
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	orgRepo repositories.OrgRepository,
	membershipRepo repositories.MembershipRepository,
	roleService *RoleService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		orgRepo:          orgRepo,
		membershipRepo:   membershipRepo,
		roleService:      roleService,
		cfg:              cfg,
	}
}

// SignupInput represents signup input
type SignupInput struct {
	LoginID     string `json:"loginId"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	AccountType string `json:"accountType"`
	OrgID       string `json:"orgId"`

	// Student fields
	Region       string `json:"region"`
	School       string `json:"school"`
	GradeLabel   string `json:"gradeLabel"`
	LevelID      string `json:"levelId"`
	StudentPhone string `json:"studentPhone"`
	ParentPhone  string `json:"parentPhone"`

	// Parent fields: the student the parent wants linked
	StudentName string `json:"studentName"`

	LearningStartMode string `json:"learningStartMode"`
	DiagnosticOptIn   bool   `json:"diagnosticOptIn"`
}

// LoginInput represents login input
type LoginInput struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// UpdateProfileInput represents a partial profile update. Nil fields are
// left untouched (merge, not replace).
type UpdateProfileInput struct {
	Name              *string `json:"name"`
	Password          *string `json:"password"`
	Region            *string `json:"region"`
	School            *string `json:"school"`
	GradeLabel        *string `json:"gradeLabel"`
	LevelID           *string `json:"levelId"`
	StudentPhone      *string `json:"studentPhone"`
	ParentPhone       *string `json:"parentPhone"`
	ShippingName      *string `json:"shippingName"`
	ShippingPhone     *string `json:"shippingPhone"`
	ShippingZipCode   *string `json:"shippingZipCode"`
	ShippingAddress   *string `json:"shippingAddress"`
	ShippingDetail    *string `json:"shippingAddressDetail"`
	ProfileImageURL   *string `json:"profileImageUrl"`
	DiagnosticOptIn   *bool   `json:"diagnosticOptIn"`
	LearningStartMode *string `json:"learningStartMode"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // access token lifetime in seconds
}

// ProfileView is the fully resolved profile returned by auth operations
type ProfileView struct {
	ID                uint       `json:"id"`
	LoginID           string     `json:"loginId"`
	Name              string     `json:"name"`
	Roles             []string   `json:"roles"`
	OrgID             string     `json:"orgId,omitempty"`
	PendingApproval   bool       `json:"pendingApproval"`
	Region            string     `json:"region,omitempty"`
	School            string     `json:"school,omitempty"`
	GradeLabel        string     `json:"gradeLabel,omitempty"`
	LevelID           string     `json:"levelId,omitempty"`
	StudentPhone      string     `json:"studentPhone,omitempty"`
	ParentPhone       string     `json:"parentPhone,omitempty"`
	ShippingName      string     `json:"shippingName,omitempty"`
	ShippingPhone     string     `json:"shippingPhone,omitempty"`
	ShippingZipCode   string     `json:"shippingZipCode,omitempty"`
	ShippingAddress   string     `json:"shippingAddress,omitempty"`
	ShippingDetail    string     `json:"shippingAddressDetail,omitempty"`
	ProfileImageURL   string     `json:"profileImageUrl,omitempty"`
	DiagnosticOptIn   bool       `json:"diagnosticOptIn"`
	LearningStartDate *time.Time `json:"learningStartDate,omitempty"`
	LastLoginAt       *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *ProfileView `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
}

// Signup registers a new user and their org membership
func (s *AuthService) Signup(ctx context.Context, input *SignupInput) (*AuthResponse, error) {
	// 1. Reject duplicate login id
	exists, err := s.userRepo.ExistsByEmail(ctx, input.LoginID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrLoginIDExists
	}

	// 2. Normalize account type
	accountType := strings.TrimSpace(strings.ToLower(input.AccountType))
	if accountType == "" {
		accountType = domain.AccountTypeStudent
	}
	switch accountType {
	case domain.AccountTypeStudent, domain.AccountTypeParent, domain.AccountTypeOrgAdmin:
	default:
		return nil, domain.ErrInvalidAccountType
	}

	// 3. Resolve target org
	org, err := s.orgRepo.GetByID(ctx, input.OrgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrgNotFound
		}
		return nil, err
	}
	if org.Status != domain.StatusActive {
		return nil, domain.ErrOrgInactive
	}

	// 4. Type-specific required fields
	if err := validateSignupFields(accountType, input); err != nil {
		return nil, err
	}
	if len(input.Password) < s.cfg.Password.MinLength {
		return nil, domain.NewValidationError("password too short")
	}

	// 5. Hash password
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 6. Create user (always active: login works while approval is pending)
	user := &models.User{
		Email:           input.LoginID,
		Password:        hashed,
		Name:            input.Name,
		Region:          input.Region,
		School:          input.School,
		GradeLabel:      input.GradeLabel,
		LevelID:         input.LevelID,
		StudentPhone:    input.StudentPhone,
		ParentPhone:     input.ParentPhone,
		DiagnosticOptIn: input.DiagnosticOptIn,
		Status:          domain.StatusActive,
	}
	applyLearningStartMode(user, input.LearningStartMode)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 7. Create membership: auto-approve only for the headquarters org
	membership := s.buildMembership(ctx, org.ID, user.ID, accountType, input)
	if err := s.createMembershipIfAbsent(ctx, membership); err != nil {
		return nil, err
	}

	// 8. Issue tokens
	roles, err := s.roleService.ResolveRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.issueTokens(ctx, user.ID, roles)
	if err != nil {
		return nil, err
	}

	view, err := s.buildProfileView(ctx, user, roles)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User signed up: %s (org: %s, type: %s)", user.Email, org.ID, accountType)

	return &AuthResponse{
		User:         view,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

// validateSignupFields enforces the per-account-type required field sets.
// Each missing field fails on its own so the client can pinpoint it.
func validateSignupFields(accountType string, input *SignupInput) error {
	if input.LoginID == "" {
		return domain.NewValidationError("loginId is required")
	}
	if input.Name == "" {
		return domain.NewValidationError("name is required")
	}

	switch accountType {
	case domain.AccountTypeStudent:
		required := []struct{ name, value string }{
			{"region", input.Region},
			{"school", input.School},
			{"gradeLabel", input.GradeLabel},
			{"levelId", input.LevelID},
			{"studentPhone", input.StudentPhone},
			{"parentPhone", input.ParentPhone},
		}
		for _, f := range required {
			if f.value == "" {
				return domain.NewValidationError(f.name + " is required")
			}
		}
	case domain.AccountTypeParent:
		required := []struct{ name, value string }{
			{"studentName", input.StudentName},
			{"studentPhone", input.StudentPhone},
			{"parentPhone", input.ParentPhone},
		}
		for _, f := range required {
			if f.value == "" {
				return domain.NewValidationError(f.name + " is required")
			}
		}
	}
	// org_admin has no extra required fields
	return nil
}

// buildMembership assembles the signup membership row. For parent signups it
// tries to locate the referenced student and stores the reported data on the
// membership either way; the actual link is created by the external approval
// workflow. Match failures never block signup.
func (s *AuthService) buildMembership(ctx context.Context, orgID string, userID uint, accountType string, input *SignupInput) *models.OrgMembership {
	now := time.Now()
	membership := &models.OrgMembership{
		OrgID:       orgID,
		UserID:      userID,
		Status:      domain.StatusPending,
		RequestedAt: now,
	}

	switch accountType {
	case domain.AccountTypeParent:
		membership.Role = domain.RoleParent
		membership.LinkedStudentName = input.StudentName
		membership.LinkedStudentPhone = input.StudentPhone
		membership.LinkedParentPhone = input.ParentPhone

		if _, err := s.userRepo.FindStudentMatch(ctx, input.StudentName, input.StudentPhone, input.ParentPhone); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("⚠️  Student match lookup failed for parent signup (user %d): %v", userID, err)
			} else {
				log.Printf("ℹ️  No student match for parent signup (user %d); left for manual linking", userID)
			}
		}
	case domain.AccountTypeOrgAdmin:
		membership.Role = domain.RoleOrgAdmin
	default:
		membership.Role = domain.RoleStudent
	}

	if orgID == s.cfg.Org.HQOrgID {
		membership.Status = domain.StatusActive
		membership.ApprovedAt = &now
	}

	return membership
}

// createMembershipIfAbsent creates the membership, skipping when a row for
// the (org, user) pair already exists.
func (s *AuthService) createMembershipIfAbsent(ctx context.Context, membership *models.OrgMembership) error {
	_, err := s.membershipRepo.GetByOrgAndUser(ctx, membership.OrgID, membership.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.membershipRepo.Create(ctx, membership)
}

// Login authenticates a user by login id and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user; unknown id and bad password share one error code
	user, err := s.userRepo.GetByEmail(ctx, input.LoginID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Best-effort last-login stamp: log and swallow failures
	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("⚠️  Failed to stamp last login for user %d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}

	// 4. Issue tokens
	roles, err := s.roleService.ResolveRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.issueTokens(ctx, user.ID, roles)
	if err != nil {
		return nil, err
	}

	view, err := s.buildProfileView(ctx, user, roles)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)

	return &AuthResponse{
		User:         view,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

// Refresh validates a presented refresh token against the store, rotates it
// and reissues both tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate the JWT itself
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	// 2. Verify the stored row: must exist, unrevoked, unexpired
	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if stored.IsRevoked() || stored.IsExpired() {
		return nil, domain.ErrUnauthorized
	}

	// 3. Load the user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	// 4. Rotate: revoke the presented token before minting the next one
	if err := s.refreshTokenRepo.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}

	// 5. Reissue with freshly resolved roles
	roles, err := s.roleService.ResolveRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.issueTokens(ctx, user.ID, roles)
	if err != nil {
		return nil, err
	}

	view, err := s.buildProfileView(ctx, user, roles)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user %d", user.ID)

	return &AuthResponse{
		User:         view,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

// Logout revokes every unrevoked refresh token the user owns
// (sign-out everywhere, not single-session)
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	log.Printf("✅ All sessions revoked for user %d", userID)
	return nil
}

// GetProfile returns the fully resolved profile for a user
func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	roles, err := s.roleService.ResolveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildProfileView(ctx, user, roles)
}

// UpdateProfile merges the provided fields into the stored profile. A
// provided password is re-hashed only when it meets the minimum length;
// shorter values are silently skipped.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&user.Name, input.Name)
	setString(&user.Region, input.Region)
	setString(&user.School, input.School)
	setString(&user.GradeLabel, input.GradeLabel)
	setString(&user.LevelID, input.LevelID)
	setString(&user.StudentPhone, input.StudentPhone)
	setString(&user.ParentPhone, input.ParentPhone)
	setString(&user.ShippingName, input.ShippingName)
	setString(&user.ShippingPhone, input.ShippingPhone)
	setString(&user.ShippingZipCode, input.ShippingZipCode)
	setString(&user.ShippingAddress, input.ShippingAddress)
	setString(&user.ShippingDetail, input.ShippingDetail)
	setString(&user.ProfileImageURL, input.ProfileImageURL)
	if input.DiagnosticOptIn != nil {
		user.DiagnosticOptIn = *input.DiagnosticOptIn
	}
	if input.LearningStartMode != nil {
		applyLearningStartMode(user, *input.LearningStartMode)
	}

	if input.Password != nil && len(*input.Password) >= s.cfg.Password.MinLength {
		hashed, err := password.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	roles, err := s.roleService.ResolveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildProfileView(ctx, user, roles)
}

// CheckLoginID reports whether a login id is still available
func (s *AuthService) CheckLoginID(ctx context.Context, loginID string) (bool, error) {
	if loginID == "" {
		return false, domain.NewValidationError("loginId is required")
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, loginID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// applyLearningStartMode sets learningStartDate to today for mode "day1"
// and clears it for anything else.
func applyLearningStartMode(user *models.User, mode string) {
	if mode == "day1" {
		today := time.Now().Truncate(24 * time.Hour)
		user.LearningStartDate = &today
		return
	}
	user.LearningStartDate = nil
}

// issueTokens mints an access/refresh pair and stamps a refresh row
// holding the token's SHA-256 digest.
func (s *AuthService) issueTokens(ctx context.Context, userID uint, roles []string) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(userID, roles, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.New().String()
	refreshToken, err := jwt.GenerateRefreshToken(userID, tokenID, s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays)
	if err != nil {
		return nil, err
	}

	row := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	if err := s.refreshTokenRepo.Create(ctx, row); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenMins * 60,
	}, nil
}

// buildProfileView assembles the resolved profile from the user row plus
// freshly computed roles, org and approval state.
func (s *AuthService) buildProfileView(ctx context.Context, user *models.User, roles []string) (*ProfileView, error) {
	orgID, err := s.roleService.ResolveOrgID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	pending, err := s.roleService.IsPendingApproval(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileView{
		ID:                user.ID,
		LoginID:           user.Email,
		Name:              user.Name,
		Roles:             roles,
		OrgID:             orgID,
		PendingApproval:   pending,
		Region:            user.Region,
		School:            user.School,
		GradeLabel:        user.GradeLabel,
		LevelID:           user.LevelID,
		StudentPhone:      user.StudentPhone,
		ParentPhone:       user.ParentPhone,
		ShippingName:      user.ShippingName,
		ShippingPhone:     user.ShippingPhone,
		ShippingZipCode:   user.ShippingZipCode,
		ShippingAddress:   user.ShippingAddress,
		ShippingDetail:    user.ShippingDetail,
		ProfileImageURL:   user.ProfileImageURL,
		DiagnosticOptIn:   user.DiagnosticOptIn,
		LearningStartDate: user.LearningStartDate,
		LastLoginAt:       user.LastLoginAt,
	}, nil
}
