package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/lettermail/go-lettermail-server/api/interceptors"
	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/metrics"
	"github.com/lettermail/go-lettermail-server/services"
	"github.com/lettermail/go-lettermail-server/types"
)

type UserAccountApi struct {
	userService    *services.UserService
	sessionService *services.SessionService
	loginLimiter   services.LoginLimiter
	validate       *validator.Validate
}

func NewUserAccountApi(userService *services.UserService, sessionService *services.SessionService, loginLimiter services.LoginLimiter) *UserAccountApi {
	return &UserAccountApi{
		userService:    userService,
		sessionService: sessionService,
		loginLimiter:   loginLimiter,
		validate:       validator.New(),
	}
}

// Register user method
// @Summary Register a new user account
// @Description Creates the account and signs the user in
// @Tags User Account
// @Param registration body types.InputSignup true "registration input"
// @Success 201 {object} types.OutputBasicUserInfo
// @Failure 400 {object} api.ApiError "Invalid input parameters"
// @Failure 409 {object} api.ApiError "User already exists"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Router /api/v1/signup [post]
func (ua *UserAccountApi) Signup(c *gin.Context) {
	var inputSignup types.InputSignup
	if err := c.ShouldBindJSON(&inputSignup); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid signup input")
		return
	}
	if err := ua.validate.Struct(inputSignup); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}

	user, err := ua.userService.Register(c.Request.Context(), &inputSignup)
	if err != nil {
		if errors.Is(err, types.ErrUserExists) {
			ApiErrorf(c, http.StatusConflict, "user already exists")
			return
		}
		if errors.Is(err, types.ErrInvalidEmail) {
			ApiErrorf(c, http.StatusBadRequest, "invalid email address")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to register user")
		return
	}

	if sErr := ua.startSession(c, user.ID); sErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to create session")
		return
	}

	c.JSON(http.StatusCreated, &types.OutputBasicUserInfo{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Created:  user.CreatedAt.UnixMilli(),
	})
}

// Signin method
// @Summary Sign in with email and password
// @Description Sets a session cookie on success
// @Tags User Account
// @Param login body types.InputSignin true "login input"
// @Success 200 {object} types.OutputBasicUserInfo
// @Failure 400 {object} api.ApiError "Invalid or missing input parameters"
// @Failure 401 {object} api.ApiError "Invalid credentials"
// @Failure 429 {object} api.ApiError "too many failed attempts"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Router /api/v1/signin [post]
func (ua *UserAccountApi) Signin(c *gin.Context) {
	var inputSignin types.InputSignin
	if err := c.ShouldBindJSON(&inputSignin); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid email or password")
		return
	}
	if err := ua.validate.Struct(inputSignin); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}

	ctx := c.Request.Context()
	allowed, lErr := ua.loginLimiter.Allowed(ctx, inputSignin.Email)
	if lErr != nil {
		global.Logger.Log("error", "failed to check login attempts", "error", lErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to perform rate limit check")
		return
	}
	if !allowed {
		ApiErrorf(c, http.StatusTooManyRequests, "too many failed sign-in attempts, try again later")
		return
	}

	user, err := ua.userService.Authenticate(ctx, inputSignin.Email, inputSignin.Password)
	if err != nil {
		if errors.Is(err, types.ErrNotAuthorized) {
			metrics.FailedSigninMetricsCount.Inc()
			if rErr := ua.loginLimiter.RecordFailure(ctx, inputSignin.Email); rErr != nil {
				global.Logger.Log("error", "failed to record login attempt", "error", rErr.Error())
			}
			ApiErrorf(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		ApiErrorf(c, http.StatusInternalServerError, "failed to sign in")
		return
	}

	if rErr := ua.loginLimiter.Reset(ctx, inputSignin.Email); rErr != nil {
		global.Logger.Log("error", "failed to reset login attempts", "error", rErr.Error())
	}

	if sErr := ua.startSession(c, user.ID); sErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to create session")
		return
	}

	c.JSON(http.StatusOK, &types.OutputBasicUserInfo{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Created:  user.CreatedAt.UnixMilli(),
	})
}

// Signout method
// @Security SessionCookie
// @Summary Sign out the current session
// @Description Destroys the session and clears the cookie
// @Tags User Account
// @Success 200 {object} types.OutputMessage
// @Failure 401 {object} api.ApiError "not signed in"
// @Produce json
// @Router /api/v1/signout [post]
func (ua *UserAccountApi) Signout(c *gin.Context) {
	token, err := c.Cookie(interceptors.SessionCookieName)
	if err == nil && token != "" {
		if dErr := ua.sessionService.Destroy(c.Request.Context(), token); dErr != nil {
			global.Logger.Log("error", "failed to destroy session", "error", dErr.Error())
		}
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(interceptors.SessionCookieName, "", -1, "/", "", global.Conf.Session.SecureCookie, true)
	c.JSON(http.StatusOK, &types.OutputMessage{Message: "signed out"})
}

// Get logged in users basic information
// @Security SessionCookie
// @Summary Get logged in users basic information
// @Description Get logged in users basic information
// @Tags User Account
// @Success 200 {object} types.OutputBasicUserInfo
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Produce json
// @Router /api/v1/user/me [get]
func (ua *UserAccountApi) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		ApiErrorf(c, http.StatusUnauthorized, "not signed in")
		return
	}
	c.JSON(http.StatusOK, &types.OutputBasicUserInfo{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Created:  user.CreatedAt.UnixMilli(),
	})
}

// List possible recipients
// @Security SessionCookie
// @Summary List all users except the caller
// @Description Used by the compose form recipient picker
// @Tags User Account
// @Success 200 {array} types.OutputRecipient
// @Failure 401 {object} api.ApiError "not signed in"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Produce json
// @Router /api/v1/user/recipients [get]
func (ua *UserAccountApi) ListRecipients(c *gin.Context) {
	userID := c.GetInt64("userID")
	recipients, err := ua.userService.ListRecipients(c.Request.Context(), userID)
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to list recipients")
		return
	}
	c.JSON(http.StatusOK, recipients)
}

// startSession creates a session and sets the cookie on the response.
func (ua *UserAccountApi) startSession(c *gin.Context, userID int64) error {
	session, err := ua.sessionService.Create(c.Request.Context(), userID)
	if err != nil {
		global.Logger.Log("error", "failed to create session", "error", err.Error())
		return err
	}
	maxAge := int(ua.sessionService.SessionDuration().Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(interceptors.SessionCookieName, session.Token, maxAge, "/", "", global.Conf.Session.SecureCookie, true)
	return nil
}

// currentUser reads the user stored by the session middleware.
func currentUser(c *gin.Context) (*types.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*types.User)
	return user, ok
}
