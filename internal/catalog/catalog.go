// Package catalog holds the static content of the Fundación Capacítamente
// support bot: the course catalog, the main menu, contact and donation text,
// and the system prompt handed to the generative-AI fallback.
//
// Everything user-visible is Spanish; matching against user input always goes
// through textutil.Normalize so accents never matter.
package catalog

import (
	"sort"
	"strings"

	"github.com/capacitamente/lyro-backend/internal/textutil"
)

// Course is one catalog entry.
type Course struct {
	Name        string
	Price       string // "" for free courses
	Instructor  string
	Certificate bool
	ComingSoon  bool
}

// Courses is the full catalog, certificate courses first.
var Courses = []Course{
	{Name: "Formador de Formadores", Price: "$120", Instructor: "Tatiana Arias", Certificate: true},
	{Name: "Inteligencia Emocional", Price: "$15", Instructor: "Tatiana Arias", Certificate: true},
	{Name: "Tecnología para Padres", Price: "$15", Instructor: "Yadira Suárez", Certificate: true},
	{Name: "Contabilidad para no contadores", Price: "$20", Instructor: "E Arias", Certificate: true, ComingSoon: true},
	{Name: "Docencia Virtual", Price: "$20", Instructor: "Tatiana Arias", Certificate: true, ComingSoon: true},
	{Name: "Habilidades Cognitivas y Emocionales", Price: "$20", Instructor: "Tatiana Arias", Certificate: true, ComingSoon: true},
	{Name: "Tecnología para Educadores", Instructor: "Tatiana Arias"},
	{Name: "Metodología de la Pregunta", Instructor: "Tatiana Arias", ComingSoon: true},
	{Name: "Neuroeducación... También en casa", Instructor: "Prosandoval", ComingSoon: true},
}

// Available returns the open (non-"próximamente") courses sorted
// deterministically by normalized name. The enrollment flow assigns the
// sequential letters (A, B, C, …) at presentation time, so the letter
// mapping is regenerated from this order on every prompt.
func Available() []Course {
	out := make([]Course, 0, len(Courses))
	for _, c := range Courses {
		if !c.ComingSoon {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return textutil.Normalize(out[i].Name) < textutil.Normalize(out[j].Name)
	})
	return out
}

// FindCourse fuzzy-matches free text against the available courses and
// returns the first course whose normalized name contains the normalized
// input (or vice versa for long inputs).
func FindCourse(text string) (Course, bool) {
	n := textutil.Normalize(text)
	if n == "" {
		return Course{}, false
	}
	for _, c := range Available() {
		cn := textutil.Normalize(c.Name)
		if strings.Contains(cn, n) || strings.Contains(n, cn) {
			return c, true
		}
	}
	return Course{}, false
}

// Contact details of the foundation.
const (
	ContactPhone    = "0983222358"
	ContactEmail    = "info@fundacioncapacitamente.com"
	ContactLocation = "Guayaquil - Ecuador"
)

// MainMenu is the numbered menu shown for greetings and the "menu" command.
const MainMenu = `¡Hola! 👋 Soy Lyro, el asistente virtual de la Fundación Capacítamente.
¿En qué puedo ayudarte hoy?

1️⃣ Información de cursos
2️⃣ Cursos con certificado
3️⃣ Estado de mi certificado
4️⃣ Inscribirme en un curso
5️⃣ Mis horarios preferidos
6️⃣ Recomiéndame un curso
7️⃣ Verificar mi inscripción
8️⃣ Contacto y donaciones

Escribe el número de una opción, o cuéntame qué necesitas.`

// CancelReply confirms a flow reset.
const CancelReply = "Listo, hemos cancelado el proceso. Escribe *menu* cuando quieras ver las opciones de nuevo. 👍"

// ContactReply lists contact channels and the donation walkthrough.
var ContactReply = "📞 Celular: " + ContactPhone + "\n" +
	"✉️ Correo: " + ContactEmail + "\n" +
	"📍 " + ContactLocation + "\n\n" +
	`💚 ¿Quieres apoyarnos con una donación?
1. Entra a la sección de Donaciones de la web y pulsa "Donar ahora".
2. Elige una cantidad ($10, $25, etc.) o personalizada y pulsa "Continuar".
3. Llena tus datos (nombre, apellidos, correo).
4. Elige el método de pago (transferencia o PayPal).
5. Pulsa "Donar ahora" para finalizar.`

// CoursesReply renders the full catalog.
func CoursesReply() string {
	var b strings.Builder
	b.WriteString("📚 Estos son nuestros cursos:\n\n🎓 Con certificado:\n")
	for _, c := range Courses {
		if !c.Certificate {
			continue
		}
		b.WriteString(courseLine(c))
	}
	b.WriteString("\n🆓 Gratuitos:\n")
	for _, c := range Courses {
		if c.Certificate {
			continue
		}
		b.WriteString(courseLine(c))
	}
	b.WriteString("\nEscribe *4* si deseas inscribirte. 📝")
	return b.String()
}

// CertificateCoursesReply renders only the certificate-bearing courses.
func CertificateCoursesReply() string {
	var b strings.Builder
	b.WriteString("🎓 Cursos con certificado:\n\n")
	for _, c := range Courses {
		if c.Certificate {
			b.WriteString(courseLine(c))
		}
	}
	b.WriteString("\nEscribe *4* si deseas inscribirte. 📝")
	return b.String()
}

func courseLine(c Course) string {
	var b strings.Builder
	b.WriteString("• ")
	b.WriteString(c.Name)
	if c.Price != "" {
		b.WriteString(" (")
		b.WriteString(c.Price)
		b.WriteString(")")
	}
	if c.ComingSoon {
		b.WriteString(" — próximamente")
	}
	b.WriteString(" — ")
	b.WriteString(c.Instructor)
	b.WriteString("\n")
	return b.String()
}

// NeutralFallback is the safe reply returned whenever AI assistance is
// unavailable for any reason (quota, cooldown, provider failure).
const NeutralFallback = "Por ahora no puedo responder esa consulta. 🙏 Escribe *menu* para ver las opciones con las que sí puedo ayudarte."

// SystemPrompt is the knowledge base handed to the generative-AI provider.
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString(`Eres Lyro, el asistente virtual de la Fundación Capacítamente (https://fundacioncapacitamente.com/). Eres amable y servicial; respondes de forma precisa, completa y concisa sobre la Fundación y sus actividades, y también preguntas de conocimiento general.

Misión principal: ofrecer capacitación de alto valor en habilidades blandas y digitales esenciales para el desarrollo profesional y empresarial.

Cursos con certificado (costo e instructor):
`)
	for _, c := range Courses {
		if c.Certificate {
			b.WriteString("- " + strings.TrimSuffix(courseLine(c)[len("• "):], "\n") + "\n")
		}
	}
	b.WriteString("\nCursos gratuitos (instructor):\n")
	for _, c := range Courses {
		if !c.Certificate {
			b.WriteString("- " + strings.TrimSuffix(courseLine(c)[len("• "):], "\n") + "\n")
		}
	}
	b.WriteString("\nContacto:\n- Celular: " + ContactPhone + "\n- Correo: " + ContactEmail + "\n- Ubicación: " + ContactLocation + "\n")
	b.WriteString("\nSi la pregunta no es sobre la Fundación, usa tu conocimiento general.\n")
	return b.String()
}
