package lessonservice

import (
	"regexp"

	"github.com/sushihentaime/lessonhub/internal/common"
)

var (
	// TitleRX rejects control characters such as newlines and tabs.
	TitleRX = regexp.MustCompile(`^[^\x00-\x1f\x7f]+$`)
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 255), "title", "must be between 1 and 255 characters long")
	v.Check(TitleRX.MatchString(title), "title", "must not contain control characters")
}

func validateContentFormat(v *common.Validator, format ContentFormat) {
	v.Check(common.PermittedValue(format, FormatMarkdown, FormatHTML), "content_format", "must be markdown or html")
}

func validateStatus(v *common.Validator, status Status) {
	v.Check(common.PermittedValue(status, StatusDraft, StatusReview, StatusPublished, StatusArchived), "status", "must be one of draft, review, published or archived")
}

func validateMetaDescription(v *common.Validator, meta string) {
	v.Check(v.CheckStringLength(meta, 0, 500), "meta_description", "must not be more than 500 characters long")
}

func validateNonNegative(v *common.Validator, num int, name string) {
	v.Check(num >= 0, name, "must not be negative")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be provided")
}

func validateCreateLesson(v *common.Validator, req *CreateLessonRequest) {
	validateInt(v, req.CourseID, "course_id")
	validateTitle(v, req.Title)
	validateContentFormat(v, req.ContentFormat)
	validateStatus(v, req.Status)
	validateMetaDescription(v, req.MetaDescription)
	validateNonNegative(v, req.EstimatedMinutes, "estimated_minutes")
	validateNonNegative(v, req.OrderNumber, "order_number")
}

func validateLessonPatch(v *common.Validator, p *LessonPatch) {
	v.Check(len(p.assignments()) > 0, "body", "must contain at least one field to update")

	if p.Title != nil {
		validateTitle(v, *p.Title)
	}
	if p.ContentFormat != nil {
		validateContentFormat(v, *p.ContentFormat)
	}
	if p.Status != nil {
		validateStatus(v, *p.Status)
	}
	if p.MetaDescription != nil {
		validateMetaDescription(v, *p.MetaDescription)
	}
	if p.EstimatedMinutes != nil {
		validateNonNegative(v, *p.EstimatedMinutes, "estimated_minutes")
	}
	if p.OrderNumber != nil {
		validateNonNegative(v, *p.OrderNumber, "order_number")
	}
	if p.ChangeDescription != nil {
		v.Check(p.Content != nil, "change_description", "can only be given together with content")
		v.Check(v.CheckStringLength(*p.ChangeDescription, 0, 500), "change_description", "must not be more than 500 characters long")
	}
}
