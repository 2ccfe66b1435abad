package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-accounts/storage"
)

// APIResponse is the envelope every JSON endpoint responds with
type APIResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Register string
	Profile  string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Uploads      storage.Uploader
	Routes       *AuthControllerRoutes
	Auther       *RouteAuthenticator
	ErrorHandler func(c *fiber.Ctx, err error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
			Profile:  "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Uploads == nil {
		panic("Missing storage uploader in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Auther.ErrorHandler
	}

	return c
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	a.Logger = l
	return a
}

func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	protected := controller.Auther.Protected()

	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Logout, protected, controller.LogOut)
	app.Get(controller.Routes.Profile, protected, controller.ProfileShow)

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Username   string `form:"username" json:"username"`
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier, falling back to username or email
func (r LoginRequest) GetIdentifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(
				&r.Password,
				validation.Required,
			),
		)
	}, "Invalid login request payload")
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, ErrUnableToParseData.Category, ErrUnableToParseData.Message).
			WithTextCode(ErrUnableToParseData.TextCode))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if payload.GetIdentifier() == "" {
		return a.ErrorHandler(ctx, errors.New("username or email is required", errors.CategoryValidation))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Data:    result,
		Message: "User logged in successfully",
	})
}

func (a *AuthController) LogOut(ctx *fiber.Ctx) error {
	if err := a.Auther.Logout(ctx); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Message: "User logged out successfully",
	})
}

func (a *AuthController) RegistrationCreate(ctx *fiber.Ctx) error {
	msg := RegisterUserMessage{
		FullName: ctx.FormValue("fullName"),
		Email:    ctx.FormValue("email"),
		Username: ctx.FormValue("username"),
		Password: ctx.FormValue("password"),
	}

	if avatar, err := ctx.FormFile("avatar"); err == nil {
		msg.Avatar = avatar
	}

	if cover, err := ctx.FormFile("coverImage"); err == nil {
		msg.CoverImage = cover
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Uploads).WithLogger(a.Logger)

	user, err := registerUser.Execute(ctx.UserContext(), msg)
	if err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(APIResponse{
		Status:  fiber.StatusCreated,
		Data:    user,
		Message: "User registered successfully",
	})
}

// ProfileShow returns the sanitized record for the authenticated user
func (a *AuthController) ProfileShow(ctx *fiber.Ctx) error {
	claims, ok := GetFiberClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrUnableToFindSession)
	}

	user, err := a.Repo.Users().GetByID(ctx.UserContext(), claims.UserID())
	if err != nil {
		a.Logger.Error("profile user fetch error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(APIResponse{
		Status:  fiber.StatusOK,
		Data:    user.Sanitized(),
		Message: "Current user fetched successfully",
	})
}
