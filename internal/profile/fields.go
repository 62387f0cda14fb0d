package profile

// FieldLocators holds the ranked candidate locators of every extracted field
type FieldLocators struct {
	Header        []Locator
	Followers     []Locator
	Following     []Locator
	Subscriptions []Locator
	Verified      []Locator
}

// DefaultFieldLocators returns the canonical locator lists. XPath candidates come first;
// the trailing CSS candidates target the same attributes and let the static driver resolve them.
func DefaultFieldLocators() FieldLocators {
	return FieldLocators{
		Header: []Locator{
			XPath("//div[contains(@data-testid, 'UserName')]"),
			XPath("//span[contains(@class, 'css-901oao') and contains(text(), '@')]"),
			CSS(`div[data-testid*="UserName"]`),
		},
		Followers: []Locator{
			XPath("//a[contains(@href,'followers')]//span[1]"),
			XPath("//span[contains(@data-testid, 'followers')]"),
			CSS(`a[href*="followers"] span`),
		},
		Following: []Locator{
			XPath("//a[contains(@href,'following')]//span[1]"),
			XPath("//span[contains(@data-testid, 'following')]"),
			CSS(`a[href*="following"] span`),
		},
		Subscriptions: []Locator{
			XPath("//a[contains(@href,'subscriptions')]//span"),
			XPath("//span[contains(text(), 'Subscriptions')]"),
			CSS(`a[href*="subscriptions"] span`),
		},
		Verified: []Locator{
			XPath("//div[@id='react-root']//main//div[contains(@class, 'css-175oi2r')]//span[contains(@class, 'r-')]//div[1]"),
			XPath("//svg[@aria-label='Verified']"),
			CSS(`svg[aria-label="Verified"]`),
		},
	}
}

// LegacyFieldLocators returns the older layout variant: a single header locator,
// nested-span fallbacks for the counts and no secondary verification check
func LegacyFieldLocators() FieldLocators {
	return FieldLocators{
		Header: []Locator{
			XPath("//div[contains(@data-testid, 'UserName')]"),
		},
		Followers: []Locator{
			XPath("//a[contains(@href,'followers')]//span[1]"),
			XPath("//a[contains(@href,'followers')]//span[1]/span"),
		},
		Following: []Locator{
			XPath("//a[contains(@href,'following')]//span[1]"),
			XPath("//a[contains(@href,'following')]//span[contains(@class, 'r-')][1]//span"),
		},
		Subscriptions: []Locator{
			XPath("//a[contains(@href,'subscriptions')]//span"),
		},
		Verified: []Locator{
			XPath("//div[@id='react-root']//main//div[contains(@class, 'css-175oi2r')]//span[contains(@class, 'r-')]//div[1]"),
		},
	}
}
