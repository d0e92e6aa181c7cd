package account

import (
	"errors"

	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/imaging"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/m-mizutani/washp/pkg/usecase/history"
)

type message struct {
	err error
	fr  string
	en  string
}

var messages = []message{
	// checked first since the storage cause stays in the chain
	{analysis.ErrSaveFailed, "L'analyse n'a pas pu être enregistrée", "The analysis could not be saved"},
	{adapter.ErrWrongPassword, "Mot de passe incorrect", "Incorrect password"},
	{adapter.ErrTooManyRequests, "Trop de tentatives. Veuillez réessayer plus tard", "Too many attempts. Please try again later"},
	{adapter.ErrRequiresRecentLogin, "Pour des raisons de sécurité, veuillez vous reconnecter avant de supprimer votre compte", "For security reasons, please sign in again before deleting your account"},
	{adapter.ErrEmailInUse, "Cette adresse e-mail est déjà utilisée", "This email address is already in use"},
	{adapter.ErrInvalidEmail, "Adresse e-mail invalide", "Invalid email address"},
	{model.ErrInvalidEmail, "Adresse e-mail invalide", "Invalid email address"},
	{adapter.ErrWeakPassword, "Le mot de passe doit contenir au moins 6 caractères", "Password must be at least 6 characters"},
	{model.ErrWeakPassword, "Le mot de passe doit contenir au moins 6 caractères", "Password must be at least 6 characters"},
	{model.ErrMissingPassword, "Veuillez saisir votre mot de passe", "Please enter your password"},
	{model.ErrEmptyName, "Veuillez saisir votre nom", "Please enter your name"},
	{adapter.ErrUserNotFound, "Aucun compte ne correspond à cette adresse e-mail", "No account matches this email address"},
	{adapter.ErrUserDisabled, "Ce compte a été désactivé", "This account has been disabled"},
	{adapter.ErrInvalidToken, "Votre session a expiré. Veuillez vous reconnecter", "Your session has expired. Please sign in again"},
	{ErrNoSession, "Veuillez vous connecter", "Please sign in"},
	{ErrReauthMismatch, "Information utilisateur manquante", "User information is missing"},
	{analysis.ErrNotSignedIn, "Connectez-vous pour enregistrer l'analyse", "Sign in to save the analysis"},
	{analysis.ErrNoImage, "Veuillez fournir au moins une photo", "Please provide at least one photo"},
	{analysis.ErrInvalidCapture, "La photo n'a pas pu être lue. Veuillez utiliser une image JPEG ou PNG", "The photo could not be read. Please use a JPEG or PNG image"},
	{imaging.ErrBudgetUnreachable, "La photo reste trop volumineuse après compression. Veuillez la reprendre de plus près", "The photo is too large even after compression. Please take a closer shot"},
	{adapter.ErrMailUnavailable, "L'envoi d'e-mails n'est pas disponible avec ce fournisseur de compte", "Email delivery is not available with this account provider"},
	{history.ErrNotFound, "Analyse introuvable", "Analysis not found"},
}

var fallbackMessage = message{fr: "Une erreur est survenue. Veuillez réessayer", en: "Something went wrong. Please try again"}

// Message returns a user facing description of err in the given locale.
// Unknown errors get a generic message.
func Message(err error, locale model.Locale) string {
	m := fallbackMessage
	for _, candidate := range messages {
		if errors.Is(err, candidate.err) {
			m = candidate
			break
		}
	}

	if locale == model.LocaleEN {
		return m.en
	}
	return m.fr
}
