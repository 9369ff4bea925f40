package router

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Action handles one resolved request. params holds the path segments
// left over after the controller and action were consumed.
type Action func(c *fiber.Ctx, params []string) error

// Controller exposes a name and the actions routable under it.
type Controller interface {
	Name() string
	Actions() map[string]Action
}

// Router maps /controller/action/param... paths onto registered
// controllers. An unknown first segment falls back to the default
// controller and the segment is kept as a parameter; likewise an
// unknown second segment falls back to the default action.
type Router struct {
	controllers       map[string]map[string]Action
	defaultController string
	defaultAction     string
}

func New(defaultController, defaultAction string) *Router {
	return &Router{
		controllers:       make(map[string]map[string]Action),
		defaultController: defaultController,
		defaultAction:     defaultAction,
	}
}

func (r *Router) Register(ctrl Controller) {
	r.controllers[ctrl.Name()] = ctrl.Actions()
}

// Validate confirms the default controller and action exist. Called once
// at startup; a router that cannot serve "/" is a deployment error.
func (r *Router) Validate() error {
	actions, ok := r.controllers[r.defaultController]
	if !ok {
		return fmt.Errorf("default controller %q is not registered", r.defaultController)
	}
	if _, ok := actions[r.defaultAction]; !ok {
		return fmt.Errorf("default controller %q has no %q action", r.defaultController, r.defaultAction)
	}
	return nil
}

// Resolve maps a URL path to a controller name, action name and leftover
// parameters. ok is false only when the resolved action does not exist.
func (r *Router) Resolve(path string) (controller, action string, params []string, ok bool) {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	controller = r.defaultController
	i := 0
	if len(segments) > 0 {
		if _, found := r.controllers[segments[0]]; found {
			controller = segments[0]
			i = 1
		}
	}

	actions, found := r.controllers[controller]
	if !found {
		return controller, "", nil, false
	}

	action = r.defaultAction
	if i < len(segments) {
		if _, found := actions[segments[i]]; found {
			action = segments[i]
			i++
		}
	}
	if _, found := actions[action]; !found {
		return controller, action, nil, false
	}
	return controller, action, segments[i:], true
}

// Handler returns the catch-all fiber handler that dispatches resolved
// actions.
func (r *Router) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		controller, action, params, ok := r.Resolve(c.Path())
		if !ok {
			return fiber.ErrNotFound
		}
		return r.controllers[controller][action](c, params)
	}
}
