package types

// Rating is the qualitative band produced by the rating matrix
type Rating string

const (
	RatingCritical    Rating = "Critical"
	RatingSevere      Rating = "Severe"
	RatingModerate    Rating = "Moderate"
	RatingSustainable Rating = "Sustainable"
)

// AllRatings returns all ratings from most to least severe
func AllRatings() []Rating {
	return []Rating{
		RatingCritical,
		RatingSevere,
		RatingModerate,
		RatingSustainable,
	}
}

// IsValid checks if the rating is valid
func (r Rating) IsValid() bool {
	switch r {
	case RatingCritical,
		RatingSevere,
		RatingModerate,
		RatingSustainable:
		return true
	default:
		return false
	}
}

// BadgeColor returns the hex colour used for rating badges in reports
func (r Rating) BadgeColor() string {
	switch r {
	case RatingCritical:
		return "#d32f2f"
	case RatingSevere:
		return "#f57c00"
	case RatingModerate:
		return "#fbc02d"
	case RatingSustainable:
		return "#388e3c"
	default:
		return "#777777"
	}
}

// Class returns the presentation class for the rating (danger, warning, success, secondary)
func (r Rating) Class() string {
	switch r {
	case RatingCritical:
		return "danger"
	case RatingSevere, RatingModerate:
		return "warning"
	case RatingSustainable:
		return "success"
	default:
		return "secondary"
	}
}

// String returns the string representation of the rating
func (r Rating) String() string {
	return string(r)
}
