package mysql

// Occupancy is only ever changed through these two conditional updates, so
// the listing invariant (0 <= occupancy <= capacity, fully_occupied iff at
// capacity) holds no matter how many requests race. MySQL evaluates SET
// clauses left to right, so `status` sees the already-adjusted occupancy.

const claimSlotSQL = `
UPDATE listings
SET current_occupancy = current_occupancy + 1,
    status = IF(current_occupancy >= capacity, 'fully_occupied', 'available'),
    updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = 'available' AND current_occupancy < capacity
`

const releaseSlotSQL = `
UPDATE listings
SET current_occupancy = current_occupancy - 1,
    status = IF(current_occupancy >= capacity, 'fully_occupied', 'available'),
    updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND current_occupancy > 0
`

// Locking the listing row up front serializes concurrent bookings for the
// same listing; without it the COUNT below is a non-locking consistent read
// under REPEATABLE READ and two racing requests can both see zero.
const lockListingSQL = `
SELECT id FROM listings WHERE id = ? FOR UPDATE
`

const activeBookingExistsSQL = `
SELECT COUNT(*) FROM bookings
WHERE user_id = ? AND listing_id = ? AND status IN ('pending', 'approved', 'paid')
`

const otherActiveBookingExistsSQL = `
SELECT COUNT(*) FROM bookings
WHERE user_id = ? AND listing_id = ? AND status IN ('pending', 'approved', 'paid') AND id <> ?
`

const insertBookingSQL = `
INSERT INTO bookings
  (listing_id, user_id, duration, period, payer, total_price, status)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const bookingColumns = `
id, listing_id, user_id, duration, period, payer, total_price, status,
checkout_session_id, payment_intent_id, created_at, updated_at
`

// markPaidSQL only moves approved bookings; repeated webhook deliveries and
// the reconciler both funnel through it, which is what makes finalization
// idempotent.
const markPaidSQL = `
UPDATE bookings SET status = 'paid', updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = 'approved'
`

// payments.booking_id is UNIQUE; INSERT IGNORE turns a concurrent duplicate
// delivery into a no-op instead of a double payment record.
const insertPaymentSQL = `
INSERT IGNORE INTO payments (booking_id, provider_payment_id, amount, status)
VALUES (?, ?, ?, 'succeeded')
`

const insertListingSQL = `
INSERT INTO listings
  (title, description, room_type, price_per_month, location, capacity,
   current_occupancy, amenities, status, admin_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateListingSQL = `
UPDATE listings
SET title = ?, description = ?, room_type = ?, price_per_month = ?,
    location = ?, capacity = ?, current_occupancy = ?, amenities = ?,
    status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const listingColumns = `
id, title, description, room_type, price_per_month, location, capacity,
current_occupancy, amenities, status, admin_id, created_at, updated_at
`

const insertUserSQL = `
INSERT INTO users
  (student_number, full_name, email, password_hash, id_number, phone_number, role)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const userColumns = `
id, student_number, full_name, email, password_hash, id_number, phone_number, role, created_at
`
