package flow

import (
	"context"

	"github.com/capacitamente/lyro-backend/internal/catalog"
	"github.com/capacitamente/lyro-backend/internal/domain"
	"github.com/capacitamente/lyro-backend/internal/textutil"
)

// CertificateFinder is the narrow read contract the certificate flow needs.
type CertificateFinder interface {
	// FindCertificate resolves an order code plus a fuzzy course-name
	// substring to a certificate record, or nil when nothing matches.
	FindCertificate(ctx context.Context, orderCode, courseNameSub string) (*domain.Certificate, error)
}

const keyOrderCode DataKey = "order_code"

// Certificate flow steps.
const (
	certStepOrderCode = iota
	certStepCourse
)

const (
	certPromptOrderCode  = "Con gusto reviso el estado de tu certificado. 📜\nEscríbeme el código de tu pedido (4 dígitos)."
	certRetryOrderCode   = "Necesito el código de 4 dígitos de tu pedido (por ejemplo: 9039). Inténtalo de nuevo, por favor."
	certPromptCourse     = "¡Gracias! Ahora escríbeme el nombre (o parte del nombre) del curso."
	certRetryCourse      = "Escríbeme al menos unas letras del nombre del curso, por ejemplo: *Emocional*."
	certTimestampLayout  = "02/01/2006"
)

// CertificateStatusEngine asks for an order code and a course name, looks the
// pair up, and maps the record status to one of three templated replies.
// "Not found" is a distinct terminal reply with contact information, not an
// error.
type CertificateStatusEngine struct {
	Certs CertificateFinder
}

// Kind implements Engine.
func (e *CertificateStatusEngine) Kind() Kind { return KindCertificateStatus }

// Begin implements Engine.
func (e *CertificateStatusEngine) Begin(ctx context.Context, t Turn) (Reply, error) {
	return Reply{Text: certPromptOrderCode}, nil
}

// Next implements Engine.
func (e *CertificateStatusEngine) Next(ctx context.Context, t Turn, st *State, input string) (Reply, bool, error) {
	switch st.Step {
	case certStepOrderCode:
		code, ok := textutil.OrderCode(input)
		if !ok {
			return Reply{Text: certRetryOrderCode}, false, nil
		}
		st.Data[keyOrderCode] = code
		st.Step = certStepCourse
		return Reply{Text: certPromptCourse}, false, nil

	default: // certStepCourse
		if len(textutil.Normalize(input)) < 3 {
			return Reply{Text: certRetryCourse}, false, nil
		}
		rec, err := e.Certs.FindCertificate(ctx, st.Data[keyOrderCode], input)
		if err != nil {
			return Reply{}, true, err
		}
		return Reply{Text: certificateReply(rec)}, true, nil
	}
}

// certificateReply renders the terminal message for a lookup result.
func certificateReply(rec *domain.Certificate) string {
	if rec == nil {
		return "No encontré un certificado con ese código y curso. 🤔\n" +
			"Verifica los datos o escríbenos al " + catalog.ContactPhone +
			" / " + catalog.ContactEmail + " y te ayudamos con gusto."
	}
	when := rec.LastUpdated.Format(certTimestampLayout)
	switch rec.Status {
	case domain.CertStatusReady:
		return "🎉 ¡Tu certificado del curso *" + rec.CourseName + "* está listo!\n" +
			"Última actualización: " + when + ".\n" +
			"Escríbenos al " + catalog.ContactPhone + " para coordinar la entrega."
	case domain.CertStatusInProgress:
		return "⏳ Tu certificado del curso *" + rec.CourseName + "* está en elaboración.\n" +
			"Última actualización: " + when + ". Te avisaremos apenas esté listo."
	default:
		return "📋 Tu certificado del curso *" + rec.CourseName + "* aún no ha sido emitido.\n" +
			"Última actualización: " + when + ".\n" +
			"Si crees que es un error, escríbenos al " + catalog.ContactPhone + "."
	}
}
