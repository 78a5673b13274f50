package service

import "errors"

var (
	// ErrUnknownLuggageSize is returned when a quote names a size with no rate.
	ErrUnknownLuggageSize = errors.New("unknown luggage size")

	// ErrInvalidQuantity is returned when a luggage quantity is negative.
	ErrInvalidQuantity = errors.New("invalid luggage quantity")

	// ErrInvalidStorageHours is returned when storage duration is below one hour.
	ErrInvalidStorageHours = errors.New("storage hours must be at least 1")

	// ErrInvalidDistance is returned when a distance is negative.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrNoLuggage is returned when a booking or quote has no bags.
	ErrNoLuggage = errors.New("at least one bag is required")

	// ErrInvalidRates is returned when a rate table has negative or missing rates.
	ErrInvalidRates = errors.New("invalid rate table")

	// ErrNotLoggedIn is returned when an operation has no authenticated user.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrMissingPickupLocation is returned when the pickup address is empty.
	ErrMissingPickupLocation = errors.New("pickup location is required")

	// ErrMissingDeliveryLocation is returned when the delivery address is empty.
	ErrMissingDeliveryLocation = errors.New("delivery location is required")

	// ErrNoPhotos is returned when a booking has no luggage photos.
	ErrNoPhotos = errors.New("at least one luggage photo is required")

	// ErrInvalidBookingID is returned when booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidStatus is returned for unknown booking statuses.
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrBookingNotCancellable is returned when a booking is past the cancellable states.
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled in current state")

	// ErrBookingTaken is returned when another porter is accepting the booking.
	ErrBookingTaken = errors.New("booking already taken")

	// ErrInvalidOTP is returned when the handoff code does not match.
	ErrInvalidOTP = errors.New("invalid otp")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidPhotoType is returned for unknown luggage photo types.
	ErrInvalidPhotoType = errors.New("invalid photo type")

	// ErrInvalidPorterID is returned when porter ID is empty.
	ErrInvalidPorterID = errors.New("invalid porter id")

	// ErrPorterNotVerified is returned when an unverified porter tries to work.
	ErrPorterNotVerified = errors.New("porter is not verified")

	// ErrPorterUnavailable is returned when a porter is off duty.
	ErrPorterUnavailable = errors.New("porter is not available")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidLocationStatus is returned for unknown porter location statuses.
	ErrInvalidLocationStatus = errors.New("invalid porter location status")

	// ErrGeocoderUnavailable is returned when no geocoder is configured.
	ErrGeocoderUnavailable = errors.New("geocoding is not configured")

	// ErrLiveTrackingUnavailable is returned when no location broker is configured.
	ErrLiveTrackingUnavailable = errors.New("live tracking is not available")

	// ErrInvalidCredentials is returned when email or password is wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrMissingField is returned when a required registration field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrWeakPassword is returned when a password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrMissingDocument is returned when a porter application lacks a required document.
	ErrMissingDocument = errors.New("missing required document")

	// ErrAccountDisabled is returned when an inactive user logs in.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrInvalidDecision is returned for unknown porter review decisions.
	ErrInvalidDecision = errors.New("invalid verification decision")

	// ErrInvalidPeriod is returned for unknown earnings periods.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrUnsupportedFileType is returned for uploads that are not png/jpg/jpeg/webp.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned for uploads above the size limit.
	ErrFileTooLarge = errors.New("file too large")
)
