package catalog

import (
	"time"

	"github.com/capacitamente/lyro-backend/internal/domain"
)

// SeedCertificates returns the certificate orders loaded at startup until
// the foundation's back office feeds real data.
// TODO: replace with the back-office import once the export format is final.
func SeedCertificates() []domain.Certificate {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []domain.Certificate{
		{OrderCode: "9039", CourseName: "Inteligencia Emocional", Status: domain.CertStatusReady, LastUpdated: day(2025, time.July, 18)},
		{OrderCode: "9040", CourseName: "Formador de Formadores", Status: domain.CertStatusInProgress, LastUpdated: day(2025, time.August, 2)},
		{OrderCode: "9041", CourseName: "Tecnología para Padres", Status: domain.CertStatusNotReady, LastUpdated: day(2025, time.August, 9)},
		{OrderCode: "9042", CourseName: "Inteligencia Emocional", Status: domain.CertStatusInProgress, LastUpdated: day(2025, time.August, 15)},
	}
}
