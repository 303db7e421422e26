package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"specialization_alert_bot/internal/domain/expiry"
	"specialization_alert_bot/internal/domain/record"
	"specialization_alert_bot/internal/domain/user"
	"specialization_alert_bot/internal/infra/importer"
)

// Custom application-level errors for record management
var ErrNotAuthorized = errors.New("user is not authorized to manage records")
var ErrInvalidExpiryDate = errors.New("invalid expiry date, use YYYY-MM-DD or DD/MM/YYYY")
var ErrMissingField = errors.New("first name, last name and specialization are required")

// Filter values accepted by RecordService.List.
const (
	FilterUpcoming = "upcoming"
	FilterExpired  = "expired"
)

// RecordInput is the editable part of a record as typed by an operator.
type RecordInput struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
	IssuedDate     string `json:"issued_date"`
	ExpiryDate     string `json:"expiry_date"`
	School         string `json:"school"`
	Company        string `json:"company"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

// RecordView is a record with its days remaining as of today. DaysRemaining is nil
// when the expiry cannot be resolved.
type RecordView struct {
	*record.Record
	DaysRemaining *int `json:"days_remaining"`
}

// DashboardStats counts over the whole record set, regardless of search filters.
type DashboardStats struct {
	Total    int `json:"total"`
	Upcoming int `json:"upcoming"`
	Expired  int `json:"expired"`
}

type Dashboard struct {
	Records []RecordView   `json:"records"`
	Stats   DashboardStats `json:"stats"`
}

// ImportReport summarizes a spreadsheet import.
type ImportReport struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type RecordService struct {
	records        record.Repository
	resolver       *expiry.Resolver
	upcomingWindow int
	logger         *logrus.Entry
}

func NewRecordService(rr record.Repository, resolver *expiry.Resolver, upcomingWindowDays int, logger *logrus.Entry) *RecordService {
	return &RecordService{
		records:        rr,
		resolver:       resolver,
		upcomingWindow: upcomingWindowDays,
		logger:         logger,
	}
}

func authorizeManage(actor *user.User) error {
	if actor == nil || !actor.Role.CanManage() {
		return ErrNotAuthorized
	}
	return nil
}

// toRecord validates the input and normalizes its dates. An unparseable issue
// date is dropped rather than rejected.
func (in RecordInput) toRecord() (*record.Record, error) {
	rec := &record.Record{
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Specialization: strings.TrimSpace(in.Specialization),
		School:         strings.TrimSpace(in.School),
		Company:        strings.TrimSpace(in.Company),
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
	}
	if rec.FirstName == "" || rec.LastName == "" || rec.Specialization == "" {
		return nil, ErrMissingField
	}
	exp, ok := expiry.NormalizeDate(in.ExpiryDate)
	if !ok {
		return nil, ErrInvalidExpiryDate
	}
	rec.ExpiryDate = exp
	if issued, ok := expiry.NormalizeDate(in.IssuedDate); ok {
		rec.IssuedDate = issued
	}
	return rec, nil
}

func (s *RecordService) Create(ctx context.Context, actor *user.User, in RecordInput) (*record.Record, error) {
	if err := authorizeManage(actor); err != nil {
		return nil, err
	}
	rec, err := in.toRecord()
	if err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create record in repository: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"record_id": rec.ID, "by": actor.Username}).Info("Record created")
	return rec, nil
}

// Update replaces the editable fields. Changing the expiry date starts a fresh
// alert history because the ledger key includes it.
func (s *RecordService) Update(ctx context.Context, actor *user.User, id int64, in RecordInput) (*record.Record, error) {
	if err := authorizeManage(actor); err != nil {
		return nil, err
	}
	rec, err := in.toRecord()
	if err != nil {
		return nil, err
	}
	existing, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"record_id": id, "by": actor.Username}).Info("Record updated")
	return rec, nil
}

func (s *RecordService) Delete(ctx context.Context, actor *user.User, id int64) error {
	if err := authorizeManage(actor); err != nil {
		return err
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"record_id": id, "by": actor.Username}).Info("Record deleted")
	return nil
}

func (s *RecordService) Get(ctx context.Context, id int64) (RecordView, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return RecordView{}, err
	}
	return s.view(rec), nil
}

// List returns records matching query and filter, plus stats over every record.
func (s *RecordService) List(ctx context.Context, query, filter string) (*Dashboard, error) {
	all, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	query = strings.TrimSpace(query)

	d := &Dashboard{Records: make([]RecordView, 0, len(all))}
	d.Stats.Total = len(all)
	for _, rec := range all {
		v := s.view(rec)
		upcoming := v.DaysRemaining != nil && *v.DaysRemaining >= 0 && *v.DaysRemaining <= s.upcomingWindow
		expired := v.DaysRemaining != nil && *v.DaysRemaining < 0
		if upcoming {
			d.Stats.Upcoming++
		}
		if expired {
			d.Stats.Expired++
		}

		if !rec.Matches(query) {
			continue
		}
		if filter == FilterUpcoming && !upcoming {
			continue
		}
		if filter == FilterExpired && !expired {
			continue
		}
		d.Records = append(d.Records, v)
	}
	return d, nil
}

// Import loads an .xlsx workbook and stores its rows in one transaction.
func (s *RecordService) Import(ctx context.Context, actor *user.User, r io.Reader) (ImportReport, error) {
	if err := authorizeManage(actor); err != nil {
		return ImportReport{}, err
	}
	res, err := importer.LoadRecords(r)
	if err != nil {
		return ImportReport{}, err
	}
	n, err := s.records.BulkCreate(ctx, res.Records)
	if err != nil {
		return ImportReport{}, fmt.Errorf("failed to store imported records: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"inserted": n, "skipped": res.Skipped, "by": actor.Username}).Info("Records imported")
	return ImportReport{Inserted: n, Skipped: res.Skipped}, nil
}

func (s *RecordService) view(rec *record.Record) RecordView {
	v := RecordView{Record: rec}
	if d, ok := s.resolver.DaysRemaining(rec.ExpiryDate); ok {
		v.DaysRemaining = &d
	}
	return v
}
