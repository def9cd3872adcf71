package user

const dailySetPrefix = "user-top-10-pics-"
const dailySetExtension = ".fst"

// DailySetName returns the basename of date's daily FST set within the
// saved-FST directory: user-top-10-pics-YYYYMMDD.fst.
func DailySetName(date string) string {
	return dailySetPrefix + date + dailySetExtension
}
