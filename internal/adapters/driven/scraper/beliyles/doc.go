// Package beliyles reads the beliyles.com storefront.
//
// Product URLs come from the store sitemap. Each product page embeds its data
// as a `var product = {...};` script assignment; the description block in that
// object carries composition, search tags and storage notes behind Russian
// text markers.
package beliyles
