package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/dto"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/model"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/policy"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
)

// ExportService renders offer data as downloadable files. Results are returned
// as buffers; the handler sets the response headers.
type ExportService interface {
	// ExportApplications writes every active application of an offer to an
	// .xlsx workbook.
	ExportApplications(ctx context.Context, offerID string, p *policy.Principal) (*bytes.Buffer, string, error)
	// OfferCalendar renders the application window of an offer as iCalendar.
	OfferCalendar(ctx context.Context, offerID string) (string, string, error)
}

type exportService struct {
	baseURL string
	repo    *repository.Repository
	rec     *Recorder
	logger  *zap.Logger
	now     func() time.Time
}

func NewExportService(cfg *config.Config, repo *repository.Repository, rec *Recorder, logger *zap.Logger) ExportService {
	return &exportService{
		baseURL: strings.TrimRight(cfg.Server.BaseURL, "/"),
		repo:    repo,
		rec:     rec,
		logger:  logger,
		now:     systemClock,
	}
}

const exportPageSize = dto.MaxLimit

// ────────────────────── Applications (.xlsx) ──────────────────────

func (s *exportService) ExportApplications(ctx context.Context, offerID string, p *policy.Principal) (*bytes.Buffer, string, error) {
	if err := s.rec.authorize(policy.Request{Principal: p, Resource: policy.ResourceOffer, Action: policy.ActionExportApplications}); err != nil {
		return nil, "", err
	}

	offer, err := s.repo.Offer.GetByID(ctx, offerID)
	if err != nil {
		return nil, "", notFound(err, "offer not found", "offer_id")
	}

	apps, err := s.allApplications(ctx, offerID)
	if err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.CandidateProfileID)
	}
	profiles, err := s.repo.CandidateProfile.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("load candidate profiles failed", zap.String("offer_id", offerID), zap.Error(err))
		return nil, "", err
	}

	buf, err := buildApplicationsWorkbook(offer, apps, profiles)
	if err != nil {
		s.logger.Error("render applications workbook failed", zap.String("offer_id", offerID), zap.Error(err))
		return nil, "", err
	}
	filename := fmt.Sprintf("offer-%s-applications-%s.xlsx", offer.ID, s.now().Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) allApplications(ctx context.Context, offerID string) ([]model.Application, error) {
	var all []model.Application
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.repo.Application.List(ctx,
			repository.ApplicationFilter{OfferID: offerID},
			repository.ListParams{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(offset+len(page)) >= total {
			return all, nil
		}
	}
}

var applicationColumns = []struct {
	title string
	width float64
}{
	{"Application ID", 38},
	{"Candidate Profile ID", 38},
	{"Full Name", 30},
	{"CPF", 16},
	{"Date of Birth", 14},
	{"Status", 14},
	{"Submitted At", 22},
}

func buildApplicationsWorkbook(offer *model.Offer, apps []model.Application, profiles map[string]*model.CandidateProfile) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Applications"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// row 1: title, row 2: header
	lastCol, _ := excelize.ColumnNumberToName(len(applicationColumns))
	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s)", offer.Title, offer.Type))
	_ = f.MergeCell(sheet, "A1", lastCol+"1")

	for i, col := range applicationColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, col.width)
		_ = f.SetCellValue(sheet, cellName(i+1, 2), col.title)
	}
	_ = f.SetCellStyle(sheet, "A2", lastCol+"2", headerStyle)

	for r, a := range apps {
		row := r + 3
		values := []interface{}{a.ID, a.CandidateProfileID, "", "", "", a.Status, a.CreatedAt.UTC().Format(time.RFC3339)}
		if cp, ok := profiles[a.CandidateProfileID]; ok {
			values[2] = deref(cp.FullName)
			values[3] = deref(cp.CPF)
			if cp.DateOfBirth != nil {
				values[4] = cp.DateOfBirth.Format(dto.DateLayout)
			}
		}
		for c, v := range values {
			_ = f.SetCellValue(sheet, cellName(c+1, row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ────────────────────── Calendar (.ics) ──────────────────────

// OfferCalendar is public, like every offer read. It holds two events: the
// application window and the deadline itself.
func (s *exportService) OfferCalendar(ctx context.Context, offerID string) (string, string, error) {
	offer, err := s.repo.Offer.GetByID(ctx, offerID)
	if err != nil {
		return "", "", notFound(err, "offer not found", "offer_id")
	}

	stamp := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//v-lab//offers//EN")
	cal.SetXWRCalName(offer.Title)

	url := fmt.Sprintf("%s/api/v1/offers/%s", s.baseURL, offer.ID)

	window := cal.AddEvent(offer.ID + "-window@v-lab")
	window.SetDtStampTime(stamp)
	window.SetModifiedAt(offer.UpdatedAt)
	window.SetStartAt(offer.PublicationDate)
	window.SetEndAt(offer.ApplicationDeadline)
	window.SetSummary(fmt.Sprintf("Applications open: %s", offer.Title))
	if offer.Description != nil {
		window.SetDescription(*offer.Description)
	}
	window.SetURL(url)

	deadline := cal.AddEvent(offer.ID + "-deadline@v-lab")
	deadline.SetDtStampTime(stamp)
	deadline.SetStartAt(offer.ApplicationDeadline)
	deadline.SetEndAt(offer.ApplicationDeadline.Add(30 * time.Minute))
	deadline.SetSummary(fmt.Sprintf("Application deadline: %s", offer.Title))
	deadline.SetURL(url)

	return cal.Serialize(), fmt.Sprintf("offer-%s.ics", offer.ID), nil
}
