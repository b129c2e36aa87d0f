package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"shethrive-data/internal/audit"
	"shethrive-data/internal/domain"
	"shethrive-data/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Export sheet names, in workbook order.
const (
	SheetProfile      = "Profile"
	SheetCycle        = "Cycle"
	SheetSymptoms     = "Symptoms"
	SheetJournal      = "Journal"
	SheetGoals        = "Goals"
	SheetReminders    = "Reminders"
	SheetAppointments = "Appointments"
	SheetPayments     = "Payments"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService personal data export as an XLSX workbook.
type ExportService interface {
	Export(ctx context.Context, userID string) ([]byte, error)
}

// ExportDeps collaborators for NewExportService.
type ExportDeps struct {
	Profiles     repository.ProfileRepository
	Cycles       repository.CycleRepository
	Symptoms     repository.SymptomLogRepository
	Journals     repository.JournalRepository
	Goals        repository.GoalRepository
	Reminders    repository.ReminderRepository
	Appointments repository.AppointmentRepository
	Payments     repository.PaymentRepository
	Audit        *audit.Trail
	Logger       *zap.Logger
}

type exportService struct {
	deps ExportDeps
}

func NewExportService(d ExportDeps) ExportService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &exportService{deps: d}
}

type sheet struct {
	name    string
	headers []string
	rows    [][]interface{}
}

// Export loads every collection concurrently, renders one sheet per
// collection and audits EXPORT_DATA. Journal content is decrypted.
func (s *exportService) Export(ctx context.Context, userID string) ([]byte, error) {
	var (
		profile      *domain.UserProfile
		rec          *domain.CycleRecord
		logs         []domain.SymptomLog
		journal      []domain.JournalEntry
		goals        []domain.Goal
		reminders    []domain.Reminder
		appointments []domain.Appointment
		payments     []domain.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { profile, err = s.deps.Profiles.Get(gctx, userID); return })
	g.Go(func() (err error) { rec, err = s.deps.Cycles.Get(gctx, userID); return })
	g.Go(func() (err error) { logs, err = s.deps.Symptoms.List(gctx, userID); return })
	g.Go(func() (err error) { journal, err = s.deps.Journals.List(gctx, userID); return })
	g.Go(func() (err error) { goals, err = s.deps.Goals.List(gctx, userID); return })
	g.Go(func() (err error) { reminders, err = s.deps.Reminders.List(gctx, userID); return })
	g.Go(func() (err error) { appointments, err = s.deps.Appointments.List(gctx, userID); return })
	g.Go(func() (err error) { payments, err = s.deps.Payments.List(gctx, userID); return })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load export data: %w", err)
	}

	sheets := []sheet{
		profileSheet(profile),
		cycleSheet(rec),
		symptomSheet(logs),
		journalSheet(journal),
		goalSheet(goals),
		reminderSheet(reminders),
		appointmentSheet(appointments),
		paymentSheet(payments),
	}
	data, err := renderWorkbook(sheets)
	if err != nil {
		return nil, err
	}

	if _, err := s.deps.Audit.Append(ctx, domain.AuditLogEntry{
		UserID:   userID,
		Actor:    audit.ActorUser,
		Action:   domain.ActionExportData,
		Resource: "Privacy Vault",
		Status:   domain.AuditAllowed,
		Details:  "Exported personal data",
	}); err != nil {
		return nil, fmt.Errorf("audit export: %w", err)
	}
	s.deps.Logger.Info("Personal data exported", zap.String("user_id", userID), zap.Int("bytes", len(data)))
	return data, nil
}

func profileSheet(p *domain.UserProfile) sheet {
	return sheet{
		name:    SheetProfile,
		headers: []string{"ID", "Email", "First Name", "Last Name", "Date of Birth", "Gender", "Location", "Email Verified", "Created At"},
		rows: [][]interface{}{{
			p.ID, p.Email, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Location,
			yesNo(p.IsEmailVerified), p.CreatedAt.Format(exportTimeLayout),
		}},
	}
}

func cycleSheet(c *domain.CycleRecord) sheet {
	return sheet{
		name:    SheetCycle,
		headers: []string{"Start Date", "Cycle Length", "Period Length"},
		rows:    [][]interface{}{{c.StartDate, c.CycleLength, c.PeriodLength}},
	}
}

func symptomSheet(logs []domain.SymptomLog) sheet {
	sh := sheet{name: SheetSymptoms, headers: []string{"Date", "Symptoms", "Severity", "Mood", "Notes"}}
	for _, l := range logs {
		sh.rows = append(sh.rows, []interface{}{l.Date, strings.Join(l.Symptoms, ", "), l.Severity, string(l.Mood), l.Notes})
	}
	return sh
}

func journalSheet(entries []domain.JournalEntry) sheet {
	sh := sheet{name: SheetJournal, headers: []string{"Entry Date", "Title", "Content"}}
	for _, e := range entries {
		sh.rows = append(sh.rows, []interface{}{e.EntryDate.Format(exportTimeLayout), e.Title, e.Content})
	}
	return sh
}

func goalSheet(goals []domain.Goal) sheet {
	sh := sheet{name: SheetGoals, headers: []string{"Name", "Category", "Target", "Current", "Unit", "Completion %", "Status"}}
	for _, g := range goals {
		sh.rows = append(sh.rows, []interface{}{g.Name, g.Category, g.TargetValue, g.CurrentValue, g.Unit, g.CompletionPercent(), g.Status})
	}
	return sh
}

func reminderSheet(reminders []domain.Reminder) sheet {
	sh := sheet{name: SheetReminders, headers: []string{"Name", "Dosage", "Frequency", "Time", "Active", "Notes"}}
	for _, r := range reminders {
		sh.rows = append(sh.rows, []interface{}{r.Name, r.Dosage, r.Frequency, r.Time, yesNo(r.IsActive), r.Notes})
	}
	return sh
}

func appointmentSheet(appts []domain.Appointment) sheet {
	sh := sheet{name: SheetAppointments, headers: []string{"Start", "Provider", "Status", "Fee", "Currency", "Notes"}}
	for _, a := range appts {
		sh.rows = append(sh.rows, []interface{}{a.StartTime.Format(exportTimeLayout), a.ProviderID, a.Status, minorToMajor(a.Fee), a.Currency, a.UserNotes})
	}
	return sh
}

func paymentSheet(payments []domain.Payment) sheet {
	sh := sheet{name: SheetPayments, headers: []string{"Date", "Description", "Amount", "Currency", "Status"}}
	for _, p := range payments {
		sh.rows = append(sh.rows, []interface{}{p.Date.Format(exportTimeLayout), p.Description, minorToMajor(p.Amount), p.Currency, p.Status})
	}
	return sh
}

func renderWorkbook(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE7F3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
		}
		for col, header := range sh.headers {
			if err := setCell(f, sh.name, col+1, 1, header); err != nil {
				return nil, err
			}
		}
		last, err := excelize.CoordinatesToCellName(len(sh.headers), 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellStyle(sh.name, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		for r, row := range sh.rows {
			for c, v := range row {
				if err := setCell(f, sh.name, c+1, r+2, v); err != nil {
					return nil, err
				}
			}
		}
		if err := f.SetPanes(sh.name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return nil, fmt.Errorf("failed to freeze panes: %w", err)
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheetName string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s!%s: %w", sheetName, cell, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func minorToMajor(amount int64) float64 {
	return float64(amount) / 100
}

