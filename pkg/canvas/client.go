package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const pageSize = 50

type Client interface {
	GetProfile(ctx context.Context, domain string, token string) (*Profile, error)                         // /api/v1/users/self/profile
	GetActiveCourses(ctx context.Context, domain string, token string) ([]Course, error)                   // /api/v1/courses
	GetAssignments(ctx context.Context, domain string, token string, courseId int64) ([]Assignment, error) // /api/v1/courses/{id}/assignments
}

type ClientImpl struct {
}

func NewClient() *ClientImpl {
	return &ClientImpl{}
}

// prepareCanvasClient returns an HTTP client that attaches the access token
// as a bearer header on every request. The token is passed in per call and
// never stored on the client.
func (c *ClientImpl) prepareCanvasClient(ctx context.Context, token string) *http.Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(ctx, source)
}

func (c *ClientImpl) get(ctx context.Context, token string, requestUrl string, target any) error {
	client := c.prepareCanvasClient(ctx, token)

	req, err := http.NewRequestWithContext(ctx, "GET", requestUrl, nil)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		err := fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
		log.Error(err)
		return err
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("Canvas API returned non-OK status: %d", resp.StatusCode)
		log.Error(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		log.Errorf("Failed to decode response: %v", err)
		return err
	}
	return nil
}

func apiURL(domain string, path string) string {
	return fmt.Sprintf("https://%s/api/v1%s", domain, path)
}

// GetProfile retrieves the profile of the token's owner. It doubles as the
// connectivity probe: a successful call proves both reachability and a
// valid token.
func (c *ClientImpl) GetProfile(ctx context.Context, domain string, token string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, token, apiURL(domain, "/users/self/profile"), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetActiveCourses retrieves the courses the user is actively enrolled in.
func (c *ClientImpl) GetActiveCourses(ctx context.Context, domain string, token string) ([]Course, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Set("per_page", fmt.Sprintf("%d", pageSize))

	var courses []Course
	requestUrl := apiURL(domain, "/courses") + "?" + query.Encode()
	if err := c.get(ctx, token, requestUrl, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetAssignments retrieves the assignments of a single course.
func (c *ClientImpl) GetAssignments(ctx context.Context, domain string, token string, courseId int64) ([]Assignment, error) {
	query := url.Values{}
	query.Set("per_page", fmt.Sprintf("%d", pageSize))

	var assignments []Assignment
	requestUrl := apiURL(domain, fmt.Sprintf("/courses/%d/assignments", courseId)) + "?" + query.Encode()
	if err := c.get(ctx, token, requestUrl, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}
