package accounts

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-accounts/storage"
)

type RegisterUserMessage struct {
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Avatar     *multipart.FileHeader
	CoverImage *multipart.FileHeader
	UseHashid  bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserHandler struct {
	repo    RepositoryManager
	uploads storage.Uploader
	logger  Logger
}

func NewRegisterUserHandler(repo RepositoryManager, uploads storage.Uploader) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:    repo,
		uploads: uploads,
		logger:  defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(l Logger) *RegisterUserHandler {
	h.logger = l
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := validateRegistration(event); err != nil {
		return nil, err
	}

	username := strings.ToLower(strings.TrimSpace(event.Username))
	email := strings.TrimSpace(event.Email)

	if _, err := h.repo.Users().GetByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, ErrDuplicateIdentity
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
	}

	avatarURL, err := h.uploadFile(ctx, event.Avatar, "avatars")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "failed to upload avatar").
			WithTextCode(TextCodeUploadFailed)
	}

	// The cover image is optional, a failed upload falls back to empty
	// rather than aborting the registration.
	coverImageURL := ""
	if event.CoverImage != nil {
		if coverImageURL, err = h.uploadFile(ctx, event.CoverImage, "covers"); err != nil {
			h.logger.Warn("cover image upload failed, continuing without it", "error", err)
			coverImageURL = ""
		}
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = email
		user.FullName = strings.TrimSpace(event.FullName)
		user.Username = getUsername(username, email)
		user.Avatar = avatarURL
		user.CoverImage = coverImageURL
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	created, err := h.repo.Users().GetByID(ctx, user.ID.String())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "something went wrong while registering the user")
	}

	return created.Sanitized(), nil
}

func (h *RegisterUserHandler) uploadFile(ctx context.Context, file *multipart.FileHeader, prefix string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := storage.RandomObjectKey(prefix)
	return h.uploads.Upload(ctx, key, src, file.Header.Get("Content-Type"))
}

func validateRegistration(event RegisterUserMessage) error {
	for _, field := range []string{event.FullName, event.Email, event.Username, event.Password} {
		if strings.TrimSpace(field) == "" {
			return goerrors.New("all fields are required", goerrors.CategoryValidation)
		}
	}

	if !strings.Contains(event.Email, "@") {
		return goerrors.New("email address is not valid", goerrors.CategoryValidation)
	}

	if event.Avatar == nil {
		return goerrors.New("avatar file is required", goerrors.CategoryValidation)
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return strings.ToLower(username)
}
