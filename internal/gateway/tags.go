package gateway

// Таксономия тегов кеша.
const (
	TagService            = "Service"
	TagUser               = "User"
	TagTransaction        = "Transaction"
	TagReview             = "Review"
	TagCoupon             = "Coupon"
	TagSubscription       = "Subscription"
	TagVerificationResult = "VerificationResult"
)

// TagTypes все типы тегов портала.
var TagTypes = []string{
	TagService,
	TagUser,
	TagTransaction,
	TagReview,
	TagCoupon,
	TagSubscription,
	TagVerificationResult,
}
