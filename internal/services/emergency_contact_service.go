package services

import (
	"context"
	"errors"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"
	"safetrack/pkg/cache"
	"safetrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactRef identifies the person being designated as a contact: either a
// registered platform user or an external person reached by email/phone. The
// two cases never mix; constructors are the only way to build one.
type ContactRef struct {
	contactUserID *primitive.ObjectID
	email         string
	phone         string
}

func PlatformContactRef(userID primitive.ObjectID) ContactRef {
	return ContactRef{contactUserID: &userID}
}

func ExternalContactRef(email, phone string) ContactRef {
	return ContactRef{email: email, phone: phone}
}

func (r ContactRef) IsPlatformUser() bool {
	return r.contactUserID != nil
}

type AddContactRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Relationship string `json:"relationship,omitempty" validate:"max=50"`
	Notes        string `json:"notes,omitempty" validate:"max=500"`

	// Notification preferences. SOS defaults on; the rest default off.
	NotifySOS        *bool `json:"notify_sos,omitempty"`
	NotifyGeofence   *bool `json:"notify_geofence,omitempty"`
	NotifyInactivity *bool `json:"notify_inactivity,omitempty"`
	NotifyLowBattery *bool `json:"notify_low_battery,omitempty"`
}

type UpdateContactRequest struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
	Notes        *string `json:"notes,omitempty"`

	NotifySOS        *bool `json:"notify_sos,omitempty"`
	NotifyGeofence   *bool `json:"notify_geofence,omitempty"`
	NotifyInactivity *bool `json:"notify_inactivity,omitempty"`
	NotifyLowBattery *bool `json:"notify_low_battery,omitempty"`
}

// PendingContactsSummary counts unresolved invitations touching a user:
// those they sent that nobody answered yet, and those naming them that they
// have not answered.
type PendingContactsSummary struct {
	PendingSent     int64 `json:"pending_sent"`
	PendingReceived int64 `json:"pending_received"`
}

// EmergencyContactService manages the emergency-contact lifecycle. Every
// method takes the authenticated caller explicitly; token-based methods are
// the exception since their callers are unauthenticated link clicks.
type EmergencyContactService interface {
	AddContact(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID, ref ContactRef, req *AddContactRequest) (*models.EmergencyContact, error)
	GetContact(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID) (*models.EmergencyContact, error)
	ListContacts(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error)
	ListActiveContacts(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID) ([]*models.EmergencyContact, error)
	GetDesignatingContacts(ctx context.Context, caller *models.Caller, contactUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error)

	VerifyContact(ctx context.Context, token string) (*models.EmergencyContact, error)
	DeclineContact(ctx context.Context, token string) (*models.EmergencyContact, error)
	ResendVerification(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID) error

	UpdateContact(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID, req *UpdateContactRequest) (*models.EmergencyContact, error)
	RemoveContact(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID) error

	CleanupExpiredTokens(ctx context.Context) (int, error)
	SendEmergencyNotifications(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID, kind AlertKind, payload *AlertPayload) (int, error)
	CheckPendingContacts(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID) (*PendingContactsSummary, error)
}

type emergencyContactService struct {
	contactRepo interfaces.EmergencyContactRepository
	userRepo    interfaces.UserRepository
	notifier    NotificationService
	cache       CacheService
	maxContacts int
	tokenExpiry time.Duration
	logger      *logger.Logger
}

// NewEmergencyContactService wires the lifecycle service. maxContacts bounds
// pending plus active relationships per owner; tokenExpiry is the window a
// verification token stays valid.
func NewEmergencyContactService(
	contactRepo interfaces.EmergencyContactRepository,
	userRepo interfaces.UserRepository,
	notifier NotificationService,
	cacheService CacheService,
	maxContacts int,
	tokenExpiry time.Duration,
	logger *logger.Logger,
) EmergencyContactService {
	return &emergencyContactService{
		contactRepo: contactRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		cache:       cacheService,
		maxContacts: maxContacts,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

const (
	contactCreateLockTTL = 10 * time.Second
	notifyTimeout        = 30 * time.Second
)

func (s *emergencyContactService) AddContact(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID, ref ContactRef, req *AddContactRequest) (*models.EmergencyContact, error) {
	if err := authorizeOwner(caller, ownerID); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationError("%s", err.Error())
	}

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	contact := &models.EmergencyContact{
		UserID:           ownerID,
		Name:             req.Name,
		Relationship:     req.Relationship,
		Notes:            req.Notes,
		Status:           models.ContactStatusPending,
		NotifySOS:        boolOrDefault(req.NotifySOS, true),
		NotifyGeofence:   boolOrDefault(req.NotifyGeofence, false),
		NotifyInactivity: boolOrDefault(req.NotifyInactivity, false),
		NotifyLowBattery: boolOrDefault(req.NotifyLowBattery, false),
	}

	if err := s.resolveContactRef(ctx, contact, ownerID, ref); err != nil {
		return nil, err
	}

	// Every pending contact gets a token so it can always reach active
	// through verification, registered users included.
	contact.GenerateVerificationToken()

	// The limit check and the insert are separate operations; a per-owner
	// lock keeps concurrent creates from both passing the count check.
	lock, err := s.cache.AcquireLock(ctx, "emergency_contacts:create:"+ownerID.Hex(), contactCreateLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) {
			return nil, validationError("another contact operation is in progress, try again")
		}
		return nil, err
	}
	defer func() {
		if err := s.cache.ReleaseLock(ctx, lock); err != nil {
			s.logger.WithError(err).Warn("Failed to release contact creation lock")
		}
	}()

	if err := s.checkContactLimit(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := s.checkDuplicates(ctx, ownerID, contact); err != nil {
		return nil, err
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, validationError("a contact with the same user, email, or phone already exists")
		}
		return nil, err
	}

	s.logger.WithUserID(ownerID).WithContactID(contact.ID).Info("Emergency contact created")

	go s.notifyAsync(contact.ID, func(ctx context.Context) error {
		return s.notifier.NotifyVerificationRequested(ctx, contact, owner.FullName())
	})

	return contact, nil
}

// resolveContactRef fills the identity fields from the reference. Platform
// contacts inherit the account email for token delivery when none is stored
// on the relationship.
func (s *emergencyContactService) resolveContactRef(ctx context.Context, contact *models.EmergencyContact, ownerID primitive.ObjectID, ref ContactRef) error {
	if ref.IsPlatformUser() {
		if *ref.contactUserID == ownerID {
			return validationError("you cannot be your own emergency contact")
		}

		contactUser, err := s.userRepo.GetByID(ctx, *ref.contactUserID)
		if err != nil {
			return err
		}

		contact.ContactUserID = ref.contactUserID
		contact.Email = contactUser.Email
		return nil
	}

	// The verification token travels by email; an external contact without
	// one would be stuck pending forever.
	if ref.email == "" {
		return validationError("an email address is required for contacts without an account")
	}
	if !utils.IsValidEmail(ref.email) {
		return validationError("invalid email address")
	}
	if ref.phone != "" && !utils.IsValidPhone(ref.phone) {
		return validationError("invalid phone number")
	}

	contact.Email = ref.email
	contact.Phone = ref.phone
	return nil
}

func (s *emergencyContactService) checkContactLimit(ctx context.Context, ownerID primitive.ObjectID) error {
	active, err := s.contactRepo.CountByOwnerAndStatus(ctx, ownerID, models.ContactStatusActive)
	if err != nil {
		return err
	}
	pending, err := s.contactRepo.CountByOwnerAndStatus(ctx, ownerID, models.ContactStatusPending)
	if err != nil {
		return err
	}

	if active+pending >= int64(s.maxContacts) {
		return validationError("emergency contact limit of %d reached", s.maxContacts)
	}
	return nil
}

// checkDuplicates gives early, readable failures. The partial unique indexes
// remain the authority when two creates race past these reads.
func (s *emergencyContactService) checkDuplicates(ctx context.Context, ownerID primitive.ObjectID, contact *models.EmergencyContact) error {
	if contact.ContactUserID != nil {
		exists, err := s.contactRepo.ExistsByOwnerAndContactUser(ctx, ownerID, *contact.ContactUserID)
		if err != nil {
			return err
		}
		if exists {
			return validationError("this user is already one of your emergency contacts")
		}
	}
	if contact.Email != "" {
		exists, err := s.contactRepo.ExistsByOwnerAndEmail(ctx, ownerID, contact.Email)
		if err != nil {
			return err
		}
		if exists {
			return validationError("a contact with email %s already exists", contact.Email)
		}
	}
	if contact.Phone != "" {
		exists, err := s.contactRepo.ExistsByOwnerAndPhone(ctx, ownerID, contact.Phone)
		if err != nil {
			return err
		}
		if exists {
			return validationError("a contact with phone %s already exists", contact.Phone)
		}
	}
	return nil
}

func (s *emergencyContactService) GetContact(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID) (*models.EmergencyContact, error) {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if err := authorizeContactAccess(caller, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *emergencyContactService) ListContacts(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error) {
	if err := authorizeOwner(caller, ownerID); err != nil {
		return nil, 0, err
	}
	return s.contactRepo.GetByOwner(ctx, ownerID, params)
}

func (s *emergencyContactService) ListActiveContacts(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID) ([]*models.EmergencyContact, error) {
	if err := authorizeOwner(caller, ownerID); err != nil {
		return nil, err
	}
	return s.contactRepo.GetByOwnerAndStatus(ctx, ownerID, models.ContactStatusActive)
}

func (s *emergencyContactService) GetDesignatingContacts(ctx context.Context, caller *models.Caller, contactUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.EmergencyContact, int64, error) {
	if err := authorizeOwner(caller, contactUserID); err != nil {
		return nil, 0, err
	}
	return s.contactRepo.GetByContactUser(ctx, contactUserID, params)
}

// VerifyContact consumes a verification token. The activation is a single
// conditional write, so of any number of concurrent verify, decline, and
// cleanup attempts on one token, exactly one wins.
func (s *emergencyContactService) VerifyContact(ctx context.Context, token string) (*models.EmergencyContact, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	contact, err := s.contactRepo.ActivateByToken(ctx, token, s.tokenCutoff())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	s.logger.WithContactID(contact.ID).Info("Emergency contact verified")

	// Role grant is best-effort after the relationship is already active; a
	// failure here is retried naturally on the user's next verification.
	if contact.ContactUserID != nil {
		if err := s.userRepo.AddRole(ctx, *contact.ContactUserID, models.RoleEmergencyContact); err != nil {
			s.logger.WithError(err).WithContactID(contact.ID).Error("Failed to grant emergency contact role")
		}
	}

	s.notifyOwnerAsync(contact, func(ctx context.Context, ownerEmail string) error {
		return s.notifier.NotifyVerified(ctx, contact, ownerEmail)
	})

	return contact, nil
}

func (s *emergencyContactService) DeclineContact(ctx context.Context, token string) (*models.EmergencyContact, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	contact, err := s.contactRepo.DeclineByToken(ctx, token, s.tokenCutoff())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	s.logger.WithContactID(contact.ID).Info("Emergency contact declined")

	s.notifyOwnerAsync(contact, func(ctx context.Context, ownerEmail string) error {
		return s.notifier.NotifyDeclined(ctx, contact, ownerEmail)
	})

	return contact, nil
}

func (s *emergencyContactService) ResendVerification(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID) error {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(caller, contact.UserID); err != nil {
		return err
	}
	if contact.Status != models.ContactStatusPending {
		return validationError("verification can only be resent while the contact is pending")
	}
	if contact.Email == "" {
		return validationError("contact has no email address to send verification to")
	}

	owner, err := s.userRepo.GetByID(ctx, contact.UserID)
	if err != nil {
		return err
	}

	contact.GenerateVerificationToken()
	if err := s.contactRepo.ResetToken(ctx, contactID, contact.VerificationToken, *contact.TokenCreatedAt); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			// Lost a race with verify, decline, or cleanup.
			return validationError("verification can only be resent while the contact is pending")
		}
		return err
	}

	s.logger.WithContactID(contactID).Info("Verification token reissued")

	go s.notifyAsync(contactID, func(ctx context.Context) error {
		return s.notifier.NotifyVerificationRequested(ctx, contact, owner.FullName())
	})

	return nil
}

func (s *emergencyContactService) UpdateContact(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID, req *UpdateContactRequest) (*models.EmergencyContact, error) {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(caller, contact.UserID); err != nil {
		return nil, err
	}

	updates, err := s.buildUpdates(ctx, contact, req)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return contact, nil
	}

	if err := s.contactRepo.Update(ctx, contactID, updates); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, validationError("a contact with the same email or phone already exists")
		}
		return nil, err
	}

	return s.contactRepo.GetByID(ctx, contactID)
}

// buildUpdates translates the partial request into repository updates. Fields
// other than notes require an active contact; an explicit empty string on an
// optional field clears it.
func (s *emergencyContactService) buildUpdates(ctx context.Context, contact *models.EmergencyContact, req *UpdateContactRequest) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	if req.Notes != nil {
		if len(*req.Notes) > utils.MaxNotesLength {
			return nil, validationError("notes must be at most %d characters", utils.MaxNotesLength)
		}
		if *req.Notes == "" {
			updates["notes"] = nil
		} else {
			updates["notes"] = *req.Notes
		}
	}

	substantive := req.Name != nil || req.Phone != nil || req.Relationship != nil ||
		req.NotifySOS != nil || req.NotifyGeofence != nil || req.NotifyInactivity != nil || req.NotifyLowBattery != nil
	if !substantive {
		return updates, nil
	}
	if contact.Status != models.ContactStatusActive {
		return nil, validationError("only active contacts can be updated")
	}

	if req.Name != nil {
		if *req.Name == "" || len(*req.Name) > utils.MaxContactNameLength {
			return nil, validationError("name must be between 1 and %d characters", utils.MaxContactNameLength)
		}
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		switch {
		case *req.Phone == "":
			updates["phone"] = nil
		case !utils.IsValidPhone(*req.Phone):
			return nil, validationError("invalid phone number")
		case *req.Phone != contact.Phone:
			exists, err := s.contactRepo.ExistsByOwnerAndPhone(ctx, contact.UserID, *req.Phone)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, validationError("a contact with phone %s already exists", *req.Phone)
			}
			updates["phone"] = *req.Phone
		}
	}
	if req.Relationship != nil {
		if *req.Relationship == "" {
			updates["relationship"] = nil
		} else {
			updates["relationship"] = *req.Relationship
		}
	}
	if req.NotifySOS != nil {
		updates["notify_sos"] = *req.NotifySOS
	}
	if req.NotifyGeofence != nil {
		updates["notify_geofence"] = *req.NotifyGeofence
	}
	if req.NotifyInactivity != nil {
		updates["notify_inactivity"] = *req.NotifyInactivity
	}
	if req.NotifyLowBattery != nil {
		updates["notify_low_battery"] = *req.NotifyLowBattery
	}

	return updates, nil
}

// RemoveContact hard-deletes the relationship. Removal is allowed from any
// status; an active contact is told their role ended.
func (s *emergencyContactService) RemoveContact(ctx context.Context, caller *models.Caller, contactID primitive.ObjectID) error {
	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(caller, contact.UserID); err != nil {
		return err
	}

	if err := s.contactRepo.Delete(ctx, contactID); err != nil {
		return err
	}

	s.logger.WithUserID(contact.UserID).WithContactID(contactID).Info("Emergency contact removed")

	if contact.Status == models.ContactStatusActive && contact.Email != "" {
		go s.notifyAsync(contactID, func(ctx context.Context) error {
			return s.notifier.NotifyRemoved(ctx, contact)
		})
	}

	return nil
}

// CleanupExpiredTokens sweeps pending contacts whose token aged out. Each
// record transitions through the same conditional write the token paths use,
// so a record verified mid-sweep is skipped, not clobbered.
func (s *emergencyContactService) CleanupExpiredTokens(ctx context.Context) (int, error) {
	cutoff := s.tokenCutoff()

	expired, err := s.contactRepo.FindExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, contact := range expired {
		transitioned, err := s.contactRepo.MarkExpired(ctx, contact.ID, cutoff)
		if err != nil {
			s.logger.WithError(err).WithContactID(contact.ID).Warn("Failed to expire contact, skipping")
			continue
		}
		if transitioned {
			cleaned++
		}
	}

	if cleaned > 0 {
		s.logger.WithField("count", cleaned).Info("Expired verification tokens cleaned up")
	}

	return cleaned, nil
}

// SendEmergencyNotifications fans an alert out to every active contact that
// opted into the alert kind. Delivery is synchronous so the caller learns how
// many contacts were actually reached; individual failures are logged and do
// not stop the fan-out.
func (s *emergencyContactService) SendEmergencyNotifications(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID, kind AlertKind, payload *AlertPayload) (int, error) {
	if err := authorizeOwner(caller, ownerID); err != nil {
		return 0, err
	}

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if payload == nil {
		payload = &AlertPayload{}
	}
	payload.OwnerName = owner.FullName()

	contacts, err := s.contactRepo.GetByOwnerAndStatus(ctx, ownerID, models.ContactStatusActive)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, contact := range contacts {
		if !wantsAlert(contact, kind) {
			continue
		}
		if err := s.notifier.NotifyAlert(ctx, kind, contact, payload); err != nil {
			s.logger.WithError(err).WithContactID(contact.ID).Error("Failed to alert emergency contact")
			continue
		}
		notified++
	}

	s.logger.WithUserID(ownerID).WithFields(map[string]interface{}{
		"kind":     string(kind),
		"notified": notified,
	}).Info("Emergency notifications sent")

	return notified, nil
}

func (s *emergencyContactService) CheckPendingContacts(ctx context.Context, caller *models.Caller, ownerID primitive.ObjectID) (*PendingContactsSummary, error) {
	if err := authorizeOwner(caller, ownerID); err != nil {
		return nil, err
	}

	sent, err := s.contactRepo.CountByOwnerAndStatus(ctx, ownerID, models.ContactStatusPending)
	if err != nil {
		return nil, err
	}
	received, err := s.contactRepo.CountByContactUserAndStatus(ctx, ownerID, models.ContactStatusPending)
	if err != nil {
		return nil, err
	}

	return &PendingContactsSummary{
		PendingSent:     sent,
		PendingReceived: received,
	}, nil
}

// tokenCutoff is the oldest creation time a token may carry and still verify.
func (s *emergencyContactService) tokenCutoff() time.Time {
	return time.Now().UTC().Add(-s.tokenExpiry)
}

func wantsAlert(contact *models.EmergencyContact, kind AlertKind) bool {
	switch kind {
	case AlertSOS:
		return contact.NotifySOS
	case AlertGeofence:
		return contact.NotifyGeofence
	case AlertInactivity:
		return contact.NotifyInactivity
	case AlertLowBattery:
		return contact.NotifyLowBattery
	default:
		return false
	}
}

// notifyAsync runs a lifecycle notification off the request path. The
// triggering transition has already committed; failures are logged only.
func (s *emergencyContactService) notifyAsync(contactID primitive.ObjectID, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		s.logger.WithError(err).WithContactID(contactID).Error("Failed to send contact notification")
	}
}

func (s *emergencyContactService) notifyOwnerAsync(contact *models.EmergencyContact, send func(ctx context.Context, ownerEmail string) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		owner, err := s.userRepo.GetByID(ctx, contact.UserID)
		if err != nil {
			s.logger.WithError(err).WithContactID(contact.ID).Error("Failed to load owner for notification")
			return
		}
		if err := send(ctx, owner.Email); err != nil {
			s.logger.WithError(err).WithContactID(contact.ID).Error("Failed to send contact notification")
		}
	}()
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
