package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ratewise/feedback-system/internal/core/ports"
)

const (
	guestCookieName   = "guestId"
	guestCookieMaxAge = 365 * 24 * 60 * 60
)

type FeedbackHandler struct {
	feedbackService ports.FeedbackService
	resolver        ports.IdentityResolver
}

func NewFeedbackHandler(feedbackService ports.FeedbackService, resolver ports.IdentityResolver) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, resolver: resolver}
}

// Submit stores one rating for the calling identity.
//
// @Summary      Submit a rating (and optional comment) for a resource
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      submitFeedbackRequest  true  "Feedback details"
// @Success      201   {object}  submitFeedbackResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /feedback [post]
func (h *FeedbackHandler) Submit(c echo.Context) error {
	var req submitFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	principal, setCookie, err := h.resolver.Resolve(c.Request().Context(), ports.ResolveInput{
		ClaimedUserID: req.UserID,
		Token:         bearerToken(c),
		GuestCookie:   guestCookieValue(c),
	})
	if err != nil {
		return err
	}
	if setCookie != nil {
		c.SetCookie(newGuestCookie(setCookie.Value))
	}

	fb, err := h.feedbackService.Submit(c.Request().Context(), principal, ports.SubmitFeedbackInput{
		ResourceID: req.ResourceID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, submitFeedbackResponse{
		ResourceID: fb.ResourceID,
		Rating:     fb.Rating,
		Comment:    fb.Comment,
		AuthorName: fb.AuthorName,
	})
}

// Query returns the paginated, sorted, averaged view for one resource.
//
// @Summary      Get the aggregated feedback view for a resource
// @Tags         feedback
// @Produce      json
// @Param        resourceId  path      string  true   "Resource id"
// @Param        page        query     int     false  "1-based page number"       default(1)
// @Param        sortBy      query     string  false  "Sort field: date|rating"   default(date)
// @Param        orderBy     query     string  false  "Sort direction: asc|dsc"   default(asc)
// @Success      200  {object}  feedbackViewResponse
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /feedback/{resourceId} [get]
func (h *FeedbackHandler) Query(c echo.Context) error {
	var params feedbackQueryParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := c.Validate(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.feedbackService.Query(c.Request().Context(), ports.FeedbackQueryInput{
		ResourceID: c.Param("resourceId"),
		Page:       params.Page,
		SortBy:     params.SortBy,
		OrderBy:    params.OrderBy,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, feedbackViewResponse{
		AverageRating:   view.AverageRating,
		TotalRatings:    view.TotalRatings,
		RecentFeedbacks: view.RecentFeedbacks,
	})
}

// ListAll returns every stored feedback record.
//
// @Summary      Get all feedback records
// @Tags         feedback
// @Produce      json
// @Success      200  {array}  domain.Feedback
// @Router       /feedback [get]
func (h *FeedbackHandler) ListAll(c echo.Context) error {
	items, err := h.feedbackService.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Delete removes every feedback record for a resource.
//
// @Summary      Delete all feedback for a resource
// @Tags         feedback
// @Produce      json
// @Param        resourceId  path      string  true  "Resource id"
// @Success      200  {object}  deleteFeedbackResponse
// @Failure      404  {object}  errorResponse
// @Router       /feedback/{resourceId} [delete]
func (h *FeedbackHandler) Delete(c echo.Context) error {
	resourceID := c.Param("resourceId")

	removed, err := h.feedbackService.Delete(c.Request().Context(), resourceID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, deleteFeedbackResponse{
		Message: fmt.Sprintf("feedback for %s is deleted successfully", resourceID),
		Removed: removed,
	})
}

// bearerToken extracts the token from the Authorization header, empty when
// absent or malformed. The resolver decides whether a token was required.
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func guestCookieValue(c echo.Context) string {
	cookie, err := c.Cookie(guestCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// newGuestCookie builds the durable guest cookie: path /, httpOnly,
// sameSite=lax, unsigned, one year max-age.
func newGuestCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     guestCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   guestCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
