package wallet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/text/unicode/norm"
)

// MnemonicEntropyBits is the entropy drawn for new mnemonics (24 words).
const MnemonicEntropyBits = 256

// Language selects a BIP-39 word list.
type Language string

// Supported mnemonic languages.
const (
	LanguageEnglish            Language = "english"
	LanguageJapanese           Language = "japanese"
	LanguageKorean             Language = "korean"
	LanguageSpanish            Language = "spanish"
	LanguageChineseSimplified  Language = "chinese_simplified"
	LanguageChineseTraditional Language = "chinese_traditional"
	LanguageFrench             Language = "french"
	LanguageItalian            Language = "italian"
	LanguageCzech              Language = "czech"
)

var wordLists = map[Language][]string{
	LanguageEnglish:            wordlists.English,
	LanguageJapanese:           wordlists.Japanese,
	LanguageKorean:             wordlists.Korean,
	LanguageSpanish:            wordlists.Spanish,
	LanguageChineseSimplified:  wordlists.ChineseSimplified,
	LanguageChineseTraditional: wordlists.ChineseTraditional,
	LanguageFrench:             wordlists.French,
	LanguageItalian:            wordlists.Italian,
	LanguageCzech:              wordlists.Czech,
}

// ParseLanguage maps a language name to a Language. The empty string
// selects English.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return LanguageEnglish, nil
	}
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := wordLists[lang]; !ok {
		return "", fmt.Errorf("unsupported mnemonic language %q", s)
	}
	return lang, nil
}

// languageOrder is the order DetectLanguage tries word lists in.
var languageOrder = []Language{
	LanguageEnglish,
	LanguageJapanese,
	LanguageKorean,
	LanguageSpanish,
	LanguageChineseSimplified,
	LanguageChineseTraditional,
	LanguageFrench,
	LanguageItalian,
	LanguageCzech,
}

// DetectLanguage returns the first supported language in which words form
// a mnemonic with a valid checksum. The seed depends only on the words, so
// a mnemonic valid in two lists derives the same key either way.
func DetectLanguage(words string) (Language, error) {
	for _, lang := range languageOrder {
		if ValidateMnemonic(words, lang) {
			return lang, nil
		}
	}
	return "", fmt.Errorf("%w: mnemonic is not valid in any supported language", ErrDerivation)
}

// bip39 keeps its word list in package state; wordListMu serialises every
// use of it and restores English afterwards.
var wordListMu sync.Mutex

func withWordList(lang Language, fn func() error) error {
	list, ok := wordLists[lang]
	if !ok {
		return fmt.Errorf("unsupported mnemonic language %q", lang)
	}

	wordListMu.Lock()
	defer wordListMu.Unlock()
	bip39.SetWordList(list)
	defer bip39.SetWordList(wordlists.English)
	return fn()
}

// NewMnemonic generates a 24-word mnemonic in lang from 256 bits of
// entropy read by the bip39 package from crypto/rand.
func NewMnemonic(lang Language) (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("mnemonic entropy: %w", err)
	}
	defer clear(entropy)

	var words string
	err = withWordList(lang, func() error {
		var err error
		words, err = bip39.NewMnemonic(entropy)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("new mnemonic: %w", err)
	}
	if lang == LanguageJapanese {
		words = strings.ReplaceAll(words, " ", "　")
	}
	return words, nil
}

// ValidateMnemonic reports whether words form a mnemonic with a valid
// checksum in lang.
func ValidateMnemonic(words string, lang Language) bool {
	valid := false
	_ = withWordList(lang, func() error {
		valid = bip39.IsMnemonicValid(strings.Join(strings.Fields(words), " "))
		return nil
	})
	return valid
}

// mnemonicSeed validates words against lang and returns the 64-byte BIP-39
// seed for words and password, both NFKD normalised.
func mnemonicSeed(words, password string, lang Language) ([]byte, error) {
	if !ValidateMnemonic(words, lang) {
		return nil, fmt.Errorf("%w: invalid %s mnemonic", ErrDerivation, lang)
	}
	normalized := norm.NFKD.String(strings.Join(strings.Fields(words), " "))
	return bip39.NewSeed(normalized, norm.NFKD.String(password)), nil
}
