package apply

// Review artifact rendering. Field order matches the form pages; blank
// values render as a dash so the staff channel always sees every row.

const (
	reviewTitle     = "📄 CV Nou Depus"
	placeholderDash = "—"
	notUploaded     = "❌ Nu a fost încărcată"
)

// ReviewField is one labelled row of the review artifact.
type ReviewField struct {
	Name  string
	Value string
}

// ReviewArtifact is the compiled, human-readable summary delivered to staff.
type ReviewArtifact struct {
	Title    string
	Fields   []ReviewField
	ImageURL string
}

// BuildReview compiles the session into the review artifact.
func BuildReview(sess Session) ReviewArtifact {
	primary := sess.Uploads.PrimaryURL
	primaryValue := primary
	if primaryValue == "" {
		primaryValue = notUploaded
	}

	return ReviewArtifact{
		Title: reviewTitle,
		Fields: []ReviewField{
			{Name: "Nume + Prenume", Value: orDash(sess.Page1.FullName)},
			{Name: "IBAN", Value: orDash(sess.Page1.IBAN)},
			{Name: "Luni în oraș", Value: orDash(sess.Page1.MonthsInCity)},
			{Name: "Număr de telefon", Value: orDash(sess.Page1.Phone)},
			{Name: "Cine te-a adus?", Value: orDash(sess.Page1.Referrer)},
			{Name: "De ce vrei să te alături echipei noastre?", Value: orDash(sess.Page2.Motivation)},
			{Name: "Experiență anterioară", Value: orDash(sess.Page2.Experience)},
			{Name: "Poză buletin + față", Value: primaryValue},
		},
		ImageURL: primary,
	}
}

func orDash(v string) string {
	if v == "" {
		return placeholderDash
	}
	return v
}
