package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func newValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	registerDomainValidations(validate)
	return validate
}

// registerDomainValidations installs the enum tags used by request structs in internal/dto.
func registerDomainValidations(v *validator.Validate) {
	_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("attendance_method", func(fl validator.FieldLevel) bool {
		return models.AttendanceMethod(strings.ToUpper(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return contains(models.EventTypes, strings.ToUpper(fl.Field().String()))
	})
	_ = v.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
		return contains(models.EventCategories, strings.ToUpper(fl.Field().String()))
	})
	_ = v.RegisterValidation("announcement_priority", func(fl validator.FieldLevel) bool {
		switch models.AnnouncementPriority(strings.ToUpper(fl.Field().String())) {
		case models.AnnouncementPriorityLow, models.AnnouncementPriorityNormal, models.AnnouncementPriorityHigh, models.AnnouncementPriorityUrgent:
			return true
		default:
			return false
		}
	})
	_ = v.RegisterValidation("signup_role", func(fl validator.FieldLevel) bool {
		switch models.UserRole(strings.ToUpper(fl.Field().String())) {
		case models.RoleStudent, models.RoleOrganizer:
			return true
		default:
			return false
		}
	})
}

func contains(values []string, candidate string) bool {
	for _, v := range values {
		if v == candidate {
			return true
		}
	}
	return false
}
