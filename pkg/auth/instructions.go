package auth

import (
	"fmt"
	"strings"
)

// ShowCredentialsGuide explains where each key comes from
func ShowCredentialsGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🔑 BOTCHECK CREDENTIALS GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("botcheck needs two sets of keys:")
	fmt.Println()

	fmt.Println("🐦 STEP 1: Twitter app keys (follower listing)")
	fmt.Println("   - Open https://developer.twitter.com/en/portal/dashboard")
	fmt.Println("   - Create a project and an app, or pick an existing one")
	fmt.Println("   - Under 'Keys and tokens' copy the API Key and API Key Secret")
	fmt.Println("   - Only app-only access is used; no user tokens are needed")
	fmt.Println()

	fmt.Println("🤖 STEP 2: RapidAPI key (bot scoring)")
	fmt.Println("   - Subscribe to the Botometer Pro API on https://rapidapi.com")
	fmt.Println("   - Copy the X-RapidAPI-Key shown on the endpoint page")
	fmt.Println("   - The free tier allows 500 checks per day")
	fmt.Println()

	fmt.Println("📄 ALTERNATIVE: import a credentials.json file")
	fmt.Println("   {")
	fmt.Println(`     "twitter_app_auth": {"consumer_key": "...", "consumer_secret": "..."},`)
	fmt.Println(`     "botometer_auth": {"rapidapi_key": "..."}`)
	fmt.Println("   }")
	fmt.Println("   Run: botcheck auth import credentials.json")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These keys are billed to your accounts")
	fmt.Println("   • NEVER commit them to a repository")
	fmt.Println("   • botcheck stores them in the system keyring or an encrypted file")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickGuide shows a condensed version for experienced users
func ShowQuickGuide() {
	fmt.Println("\n🔑 Need: Twitter API key + secret (developer portal) and a RapidAPI key (Botometer Pro)")
	fmt.Println("   Type 'help' for detailed instructions")
}
