package domain

import "sort"

const MaxLanguageLen = 32

type Language string

const (
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangJava       Language = "java"
	LangPython3    Language = "python3"
	LangSQL        Language = "sql"
	LangJavaScript Language = "javascript"

	DefaultLanguage = LangPython3
)

var templates = map[Language]string{
	LangC: `#include<stdio.h>

int main() {
    // Your code here
    return 0;
}`,
	LangCPP: `#include<iostream>
using namespace std;

int main() {
    // Your code here
    return 0;
}`,
	LangJava: `public class Main {
    public static void main(String[] args) {
        // Your code here
    }
}`,
	LangPython3: `# Your Python code here
print("Hello, CodeSync!")`,
	LangSQL: `-- Your SQL query here
SELECT * FROM table_name;`,
	LangJavaScript: `// Your JavaScript code here
console.log("Hello, CodeSync!");`,
}

// Template returns the starter text for a language, or "" if it has none.
func Template(lang Language) string {
	return templates[lang]
}

func (l Language) Known() bool {
	_, ok := templates[l]
	return ok
}

// Languages lists the languages that ship a starter template, sorted.
func Languages() []Language {
	out := make([]Language, 0, len(templates))
	for l := range templates {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultSnapshot is what an unseen room starts with.
func DefaultSnapshot() Snapshot {
	return Snapshot{Language: DefaultLanguage, Text: Template(DefaultLanguage)}
}
