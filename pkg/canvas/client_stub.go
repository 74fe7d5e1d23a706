package canvas

import (
	"context"
	"errors"
	"sync"
)

type ClientStub struct {
	mu                   sync.RWMutex
	profile              *Profile
	courses              []Course
	assignments          map[int64][]Assignment // courseId -> assignments
	getProfileErr        error
	getActiveCoursesErr  error
	getAssignmentsErr    map[int64]error // courseId -> error
	allGetAssignmentsErr error
}

func NewClientStub() *ClientStub {
	return &ClientStub{
		assignments:       make(map[int64][]Assignment),
		getAssignmentsErr: make(map[int64]error),
	}
}

func (c *ClientStub) GetProfile(ctx context.Context, domain string, token string) (*Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.getProfileErr != nil {
		return nil, c.getProfileErr
	}
	if c.profile == nil {
		return &Profile{ID: 1, Name: "Stub User"}, nil
	}
	profile := *c.profile
	return &profile, nil
}

func (c *ClientStub) GetActiveCourses(ctx context.Context, domain string, token string) ([]Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.getActiveCoursesErr != nil {
		return nil, c.getActiveCoursesErr
	}

	result := make([]Course, len(c.courses))
	copy(result, c.courses)
	return result, nil
}

func (c *ClientStub) GetAssignments(ctx context.Context, domain string, token string, courseId int64) ([]Assignment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.allGetAssignmentsErr != nil {
		return nil, c.allGetAssignmentsErr
	}
	if err, exists := c.getAssignmentsErr[courseId]; exists {
		return nil, err
	}

	assignments, exists := c.assignments[courseId]
	if !exists {
		return []Assignment{}, nil
	}

	result := make([]Assignment, len(assignments))
	copy(result, assignments)
	return result, nil
}

// Helper methods for test setup

func (c *ClientStub) SetProfile(profile *Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = profile
}

func (c *ClientStub) SetCourses(courses []Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses = make([]Course, len(courses))
	copy(c.courses, courses)
}

func (c *ClientStub) SetAssignments(courseId int64, assignments []Assignment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments[courseId] = make([]Assignment, len(assignments))
	copy(c.assignments[courseId], assignments)
}

// Error setters for testing error scenarios

func (c *ClientStub) SetGetProfileError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getProfileErr = err
}

func (c *ClientStub) SetGetActiveCoursesError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getActiveCoursesErr = err
}

func (c *ClientStub) SetGetAssignmentsError(courseId int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getAssignmentsErr[courseId] = err
}

func (c *ClientStub) SetAllGetAssignmentsError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allGetAssignmentsErr = err
}

// Reset clears all data
func (c *ClientStub) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = nil
	c.courses = nil
	c.assignments = make(map[int64][]Assignment)
	c.getProfileErr = nil
	c.getActiveCoursesErr = nil
	c.getAssignmentsErr = make(map[int64]error)
	c.allGetAssignmentsErr = nil
}

var ErrClientTestError = errors.New("client test error")
