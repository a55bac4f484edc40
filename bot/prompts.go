package bot

import "github.com/iulicovete-ux/Documente-CV/core/telegram/state"

// fieldPrompt is one labelled question of a form page. Keys double as the
// temp-data keys the answers are stored under.
type fieldPrompt struct {
	key   string
	label string
}

var page1Prompts = []fieldPrompt{
	{key: "nume_prenume", label: "Nume + Prenume"},
	{key: "iban", label: "IBAN"},
	{key: "luni_oras", label: "Luni în oraș"},
	{key: "telefon", label: "Număr de telefon"},
	{key: "cine_te_a_adus", label: "Cine te-a adus?"},
}

var page2Prompts = []fieldPrompt{
	{key: "motiv", label: "De ce vrei să te alături echipei noastre?"},
	{key: "experienta", label: "Experiență anterioară"},
}

func statePage1(idx int) state.State {
	return state.State("cv_p1_" + page1Prompts[idx].key)
}

func statePage2(idx int) state.State {
	return state.State("cv_p2_" + page2Prompts[idx].key)
}

const (
	callbackStart = "cv_start"
	callbackNext  = "cv_next"

	panelButtonLabel = "📄 Depune CV"
	panelText        = "Apasă butonul de mai jos pentru a depune un CV."

	page1Header = "📝 Depunere CV (Pagina 1/2)"
	page2Header = "📝 Depunere CV (Pagina 2/2)"

	msgPanelPosted   = "✅ Panoul „Depune CV” a fost postat."
	msgPanelFailed   = "❌ Canalul de depunere este invalid."
	msgPage1Saved    = "✅ Pagina 1 a fost salvată."
	btnNextPageLabel = "Următoarea pagină"
	msgRestart       = "❌ Nu am găsit datele din Pagina 1. Apasă din nou „Depune CV”."
	msgGenericError  = "❌ A apărut o eroare. Mai încearcă o dată."
	msgOpenPrivate   = "❗ Deschide mai întâi o conversație privată cu botul, apoi apasă din nou „Depune CV”."
	msgPage2Saved    = "✅ Pagina 2 a fost salvată. Am creat un topic privat pentru poze: %s"
)

const uploadInstructions = "📸 *Încarcă aici, te rog, două poze (în două mesaje separate sau în același mesaj):*\n" +
	"1) *Poză buletin (față)*\n" +
	"2) *Poză cu ID in-game + fața personajului*\n\n" +
	"După ce sunt încărcate ambele, aplicația se trimite automat către staff în #Documente."
