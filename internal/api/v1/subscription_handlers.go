package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/FoodFox/internal/pkg/usercontext"
)

// GetPlans lists the active subscription plans
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	plans, err := s.subscriptions.ListPlans(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(plans)
}

// GetPlan returns one plan
func (s *APIServer) GetPlan(c *fiber.Ctx) error {
	planID, err := idParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	plan, err := s.subscriptions.GetPlan(c.UserContext(), planID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(plan)
}

// PostSubscription enrolls the caller in a plan
func (s *APIServer) PostSubscription(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	sub, err := s.subscriptions.Subscribe(c.UserContext(), usercontext.GetUserID(c), req.PlanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// GetCurrentSubscription returns the caller's active or paused subscription
func (s *APIServer) GetCurrentSubscription(c *fiber.Ctx) error {
	sub, err := s.subscriptions.GetCurrent(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

// GetSubscriptionHistory returns all subscription rows of the caller
func (s *APIServer) GetSubscriptionHistory(c *fiber.Ctx) error {
	subs, err := s.subscriptions.History(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(subs)
}

func (s *APIServer) PostCancelSubscription(c *fiber.Ctx) error {
	sub, err := s.subscriptions.Cancel(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

func (s *APIServer) PostPauseSubscription(c *fiber.Ctx) error {
	var req PauseRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	sub, err := s.subscriptions.Pause(c.UserContext(), usercontext.GetUserID(c), req.PauseEnd)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

func (s *APIServer) PostResumeSubscription(c *fiber.Ctx) error {
	sub, err := s.subscriptions.Resume(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sub)
}

func (s *APIServer) PostRenewSubscription(c *fiber.Ctx) error {
	sub, err := s.subscriptions.Renew(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (s *APIServer) PostChangePlan(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	sub, err := s.subscriptions.ChangePlan(c.UserContext(), usercontext.GetUserID(c), req.PlanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}
